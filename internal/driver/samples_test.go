package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wscheck/internal/contract"
	"wscheck/internal/diag"
	"wscheck/internal/loader"
	"wscheck/internal/source"
	"wscheck/internal/testkit"
)

var sampleExpectations = map[int][]string{
	1:  {contract.InvalidResourceError},
	2:  nil,
	3:  nil,
	4:  {contract.MoreThanOneResourceParamError},
	5:  {contract.InvalidResourceParameterError},
	6:  nil, // http listener wrapped by a websocket listener
	7:  {contract.FunctionNotAcceptedByTheService},
	8:  {contract.FunctionNotAcceptedByTheService},
	9:  nil,
	10: {contract.InvalidReturnTypesInResource},
	11: {contract.InvalidReturnTypesInResource},
	12: nil,
	13: nil,
	14: nil,
	15: {contract.InvalidInputParamForOnOpen, contract.InvalidInputParamForOnClose, contract.InvalidReturnTypes},
	16: {contract.InvalidInputParamsForOnOpen},
	17: nil,
	18: {contract.InvalidReturnTypes, contract.InvalidInputParamsForOnClose},
	19: {contract.InvalidReturnTypes},
	20: {contract.InvalidReturnTypes},
	21: {contract.InvalidInputForOnErrorWithOne, contract.InvalidInputParamForOnIdle},
	22: {contract.InvalidInputForOnError, contract.InvalidInputParamsForOnIdle},
	23: {contract.InvalidInputForOnTextWithOne, contract.InvalidReturnTypesOnData},
	24: {contract.InvalidInputForOnText},
	25: {contract.InvalidInputForOnBinaryWithOne},
	26: {contract.InvalidInputForOnBinary, contract.InvalidReturnTypesOnData},
}

func sampleDir(n int) string {
	return filepath.Join("testdata", fmt.Sprintf("sample_package_%d", n))
}

func formats(bag *diag.Bag) []string {
	var out []string
	for _, d := range bag.Items() {
		out = append(out, d.Format)
	}
	return out
}

func TestSamplePackages(t *testing.T) {
	for n := 1; n <= len(sampleExpectations); n++ {
		want := sampleExpectations[n]
		t.Run(fmt.Sprintf("sample_package_%d", n), func(t *testing.T) {
			res, err := Diagnose(context.Background(), source.NewFileSet(), sampleDir(n), Options{})
			require.NoError(t, err)
			assert.Equal(t, want, formats(res.Bag))
			for _, d := range res.Bag.Items() {
				assert.Equal(t, "WS_101", d.Code.ID())
				assert.Equal(t, diag.SevError, d.Severity)
				assert.Equal(t, d.Format, d.Message)
				assert.True(t, d.Primary.Known(), "diagnostic without location: %+v", d)
			}
			assert.Equal(t, len(want) > 0, res.Bag.HasErrors())
		})
	}
}

func TestSampleSpanInvariants(t *testing.T) {
	fs := source.NewFileSet()
	for n := 1; n <= len(sampleExpectations); n++ {
		res, err := Diagnose(context.Background(), fs, sampleDir(n), Options{})
		require.NoError(t, err)
		require.NotNil(t, res.Package)
		for _, f := range res.Package.Files {
			assert.NoError(t, testkit.CheckSpanInvariants(f, fs.Get(f.ID)), "sample %d", n)
		}
	}
}

func TestDiagnoseIsIdempotent(t *testing.T) {
	for _, n := range []int{15, 18, 26} {
		fs := source.NewFileSet()
		first, err := Diagnose(context.Background(), fs, sampleDir(n), Options{})
		require.NoError(t, err)
		second, err := Diagnose(context.Background(), fs, sampleDir(n), Options{})
		require.NoError(t, err)
		assert.Equal(t, formats(first.Bag), formats(second.Bag), "sample %d", n)
	}
}

func TestDiagnoseReportsProgress(t *testing.T) {
	var seen []Status
	opts := Options{OnEvent: func(ev Event) { seen = append(seen, ev.Status) }}
	_, err := Diagnose(context.Background(), source.NewFileSet(), sampleDir(4), opts)
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusLoading, StatusChecking, StatusDone}, seen)
}

func TestDiagnoseEmptyDir(t *testing.T) {
	_, err := Diagnose(context.Background(), source.NewFileSet(), t.TempDir(), Options{})
	require.ErrorIs(t, err, loader.ErrNoSources)
}

func TestDiagnoseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Diagnose(ctx, source.NewFileSet(), sampleDir(1), Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDiagnoseMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.svc.yaml"), []byte("services:\n  a: b: c\n"), 0o600))
	res, err := Diagnose(context.Background(), source.NewFileSet(), dir, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Bag.Len())
	assert.Equal(t, diag.SynMalformedYAML, res.Bag.Items()[0].Code)
}

func TestSeverityPolicy(t *testing.T) {
	dir := t.TempDir()
	content := "services:\n  - kind: upgrade\n    listener: missing\n    functions: []\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.svc.yaml"), []byte(content), 0o600))

	res, err := Diagnose(context.Background(), source.NewFileSet(), dir, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Bag.Len())
	assert.Equal(t, diag.ProjUnknownListener, res.Bag.Items()[0].Code)
	assert.False(t, res.Bag.HasErrors())

	res, err = Diagnose(context.Background(), source.NewFileSet(), dir, Options{WarningsAsErrors: true})
	require.NoError(t, err)
	assert.True(t, res.Bag.HasErrors())

	res, err = Diagnose(context.Background(), source.NewFileSet(), dir, Options{IgnoreWarnings: true})
	require.NoError(t, err)
	assert.Zero(t, res.Bag.Len())
}

func TestDiagnoseWithTimings(t *testing.T) {
	res, err := Diagnose(context.Background(), source.NewFileSet(), sampleDir(3), Options{EnableTimings: true})
	require.NoError(t, err)
	require.NotNil(t, res.Timing)
	require.Equal(t, 1, res.Bag.Len())
	assert.Equal(t, diag.ObsTimings, res.Bag.Items()[0].Code)
	assert.False(t, res.Bag.HasErrors())
}

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	require.NoError(t, err)
	opts := Options{Cache: cache}

	fs := source.NewFileSet()
	fresh, err := Diagnose(context.Background(), fs, sampleDir(18), opts)
	require.NoError(t, err)
	assert.False(t, fresh.Cached)
	require.NotNil(t, fresh.Package)

	cached, err := Diagnose(context.Background(), fs, sampleDir(18), opts)
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	assert.Nil(t, cached.Package)
	assert.Equal(t, formats(fresh.Bag), formats(cached.Bag))

	// Spans point into the freshly loaded file and resolve to the same position.
	for i, d := range cached.Bag.Items() {
		want, _ := fs.Resolve(fresh.Bag.Items()[i].Primary)
		got, _ := fs.Resolve(d.Primary)
		assert.Equal(t, want, got)
	}

	require.NoError(t, cache.DropAll())
	again, err := Diagnose(context.Background(), fs, sampleDir(18), opts)
	require.NoError(t, err)
	assert.False(t, again.Cached)
}

func TestDiagnoseDir(t *testing.T) {
	res, err := DiagnoseDir(context.Background(), "testdata", Options{Jobs: 4})
	require.NoError(t, err)
	require.Len(t, res.Packages, len(sampleExpectations))
	assert.True(t, res.HasErrors())

	total := 0
	for _, want := range sampleExpectations {
		total += len(want)
	}
	assert.Equal(t, total, res.Diagnostics())

	// packages come back in sorted directory order
	dirs, err := ListPackages("testdata")
	require.NoError(t, err)
	for i, p := range res.Packages {
		assert.Equal(t, dirs[i], p.Dir)
	}
}

func TestDiagnoseDirWithoutPackages(t *testing.T) {
	_, err := DiagnoseDir(context.Background(), t.TempDir(), Options{})
	require.ErrorIs(t, err, loader.ErrNoSources)
}
