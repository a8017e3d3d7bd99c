package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Service contract violations. All of them share one public identifier;
	// the violation itself is told apart by the message template.
	WSContract Code = 101

	// Описания пакетов (*.svc.yaml)
	SynInfo            Code = 2000
	SynMalformedYAML   Code = 2001
	SynExpectMapping   Code = 2002
	SynExpectSequence  Code = 2003
	SynExpectScalar    Code = 2004
	SynMissingField    Code = 2005
	SynUnknownField    Code = 2006
	SynBadQualifier    Code = 2007
	SynBadServiceKind  Code = 2008
	SynBadTypeExpr     Code = 2009
	SynDuplicateImport Code = 2010

	// Ошибки I/O
	IOLoadFileError Code = 4001

	// Ошибки проекта
	ProjInfo             Code = 5000
	ProjManifestInvalid  Code = 5001
	ProjUnknownListener  Code = 5002
	ProjNoServiceSources Code = 5003

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:          "Unknown error",
	WSContract:           "Service contract violation",
	SynInfo:              "Description information",
	SynMalformedYAML:     "Malformed YAML",
	SynExpectMapping:     "Expected a mapping",
	SynExpectSequence:    "Expected a sequence",
	SynExpectScalar:      "Expected a scalar value",
	SynMissingField:      "Missing required field",
	SynUnknownField:      "Unknown field",
	SynBadQualifier:      "Unknown function qualifier",
	SynBadServiceKind:    "Unknown service kind",
	SynBadTypeExpr:       "Malformed type expression",
	SynDuplicateImport:   "Duplicate import alias",
	IOLoadFileError:      "I/O error",
	ProjInfo:             "Project information",
	ProjManifestInvalid:  "Invalid wscheck.toml",
	ProjUnknownListener:  "Unknown listener",
	ProjNoServiceSources: "No service descriptions",
	ObsInfo:              "Observability information",
	ObsTimings:           "Timings",
}

// ID returns the stable public identifier of the code.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic > 0 && ic < 1000:
		return fmt.Sprintf("WS_%03d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
