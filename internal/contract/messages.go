package contract

// Violation classifies how a handler breaks its contract.
type Violation uint8

const (
	ViolationNone Violation = iota
	// ViolationCardinality: the upgrade service has not exactly one entry.
	ViolationCardinality
	// ViolationQualifier: wrong qualifier, method or event name.
	ViolationQualifier
	// ViolationParam: a single parameter (or a missing mandatory one).
	ViolationParam
	// ViolationParams: the parameter list as a whole.
	ViolationParams
	ViolationReturn
)

func (v Violation) String() string {
	switch v {
	case ViolationCardinality:
		return "cardinality"
	case ViolationQualifier:
		return "qualifier"
	case ViolationParam:
		return "param"
	case ViolationParams:
		return "params"
	case ViolationReturn:
		return "return"
	default:
		return "none"
	}
}

// Message templates. Diagnostics carry them verbatim.
const (
	InvalidResourceError             = "websocket:Service must have exactly one resource function to upgrade the connection"
	FunctionNotAcceptedByTheService  = "function is not accepted by the WebSocket service"
	MoreThanOneResourceParamError    = "upgrade resource function can have at most one parameter"
	InvalidResourceParameterError    = "upgrade resource parameter must be http:Request, http:Caller or websocket:Caller"
	InvalidReturnTypesInResource     = "upgrade resource function must return websocket:Service, an error or nil"
	InvalidInputParamForOnOpen       = "onOpen parameter must be websocket:Caller"
	InvalidInputParamsForOnOpen      = "onOpen can have at most one parameter of type websocket:Caller"
	InvalidInputParamForOnClose      = "invalid parameter for onClose: expected websocket:Caller, int or string"
	InvalidInputParamsForOnClose     = "onClose parameters must be websocket:Caller, int and string in that order"
	InvalidInputForOnErrorWithOne    = "onError must have an error parameter"
	InvalidInputForOnError           = "onError parameters must be websocket:Caller and an error"
	InvalidInputParamForOnIdle       = "onIdleTimeout parameter must be websocket:Caller or websocket:IdleTimeoutEvent"
	InvalidInputParamsForOnIdle      = "onIdleTimeout can have at most one parameter"
	InvalidInputForOnTextWithOne     = "onText must have a mandatory string parameter"
	InvalidInputForOnText            = "onText parameters must be websocket:Caller and string"
	InvalidInputForOnBinaryWithOne   = "onBinary must have a mandatory byte[] parameter"
	InvalidInputForOnBinary          = "onBinary parameters must be websocket:Caller and byte[]"
	InvalidInputForOnPingPongWithOne = "onPing and onPong must have a byte[] parameter"
	InvalidInputForOnPingPong        = "onPing and onPong parameters must be websocket:Caller and byte[]"
	InvalidReturnTypes               = "remote function must return an error or nil"
	InvalidReturnTypesOnData         = "data remote function must return string, byte[], an error or nil"
)

// Template is a message together with its stable constant name.
type Template struct {
	Name string
	Text string
}

type messageKey struct {
	kind EventKind
	v    Violation
}

var messages map[messageKey]Template

func init() {
	notAccepted := Template{"FUNCTION_NOT_ACCEPTED_BY_THE_SERVICE", FunctionNotAcceptedByTheService}
	lifecycleReturn := Template{"INVALID_RETURN_TYPES", InvalidReturnTypes}
	dataReturn := Template{"INVALID_RETURN_TYPES_ON_DATA", InvalidReturnTypesOnData}

	m := map[messageKey]Template{
		{EventUpgrade, ViolationCardinality}: {"INVALID_RESOURCE_ERROR", InvalidResourceError},
		{EventUpgrade, ViolationParam}:       {"INVALID_RESOURCE_PARAMETER_ERROR", InvalidResourceParameterError},
		{EventUpgrade, ViolationParams}:      {"MORE_THAN_ONE_RESOURCE_PARAM_ERROR", MoreThanOneResourceParamError},
		{EventUpgrade, ViolationReturn}:      {"INVALID_RETURN_TYPES_IN_RESOURCE", InvalidReturnTypesInResource},

		{EventOpen, ViolationParam}:         {"INVALID_INPUT_PARAM_FOR_ONOPEN", InvalidInputParamForOnOpen},
		{EventOpen, ViolationParams}:        {"INVALID_INPUT_PARAMS_FOR_ONOPEN", InvalidInputParamsForOnOpen},
		{EventClose, ViolationParam}:        {"INVALID_INPUT_PARAM_FOR_ONCLOSE", InvalidInputParamForOnClose},
		{EventClose, ViolationParams}:       {"INVALID_INPUT_PARAMS_FOR_ONCLOSE", InvalidInputParamsForOnClose},
		{EventError, ViolationParam}:        {"INVALID_INPUT_FOR_ONERROR_WITH_ONE_PARAMS", InvalidInputForOnErrorWithOne},
		{EventError, ViolationParams}:       {"INVALID_INPUT_FOR_ONERROR", InvalidInputForOnError},
		{EventIdleTimeout, ViolationParam}:  {"INVALID_INPUT_PARAM_FOR_ONIDLETIMEOUT", InvalidInputParamForOnIdle},
		{EventIdleTimeout, ViolationParams}: {"INVALID_INPUT_PARAMS_FOR_ONIDLETIMEOUT", InvalidInputParamsForOnIdle},
		{EventText, ViolationParam}:         {"INVALID_INPUT_FOR_ON_TEXT_WITH_ONE_PARAMS", InvalidInputForOnTextWithOne},
		{EventText, ViolationParams}:        {"INVALID_INPUT_FOR_ON_TEXT", InvalidInputForOnText},
		{EventBinary, ViolationParam}:       {"INVALID_INPUT_FOR_ON_BINARY_WITH_ONE_PARAMS", InvalidInputForOnBinaryWithOne},
		{EventBinary, ViolationParams}:      {"INVALID_INPUT_FOR_ON_BINARY", InvalidInputForOnBinary},
	}
	for _, k := range []EventKind{EventPing, EventPong} {
		m[messageKey{k, ViolationParam}] = Template{"INVALID_INPUT_FOR_ON_PING_PONG_WITH_ONE_PARAMS", InvalidInputForOnPingPongWithOne}
		m[messageKey{k, ViolationParams}] = Template{"INVALID_INPUT_FOR_ON_PING_PONG", InvalidInputForOnPingPong}
	}
	for _, k := range Events() {
		m[messageKey{k, ViolationQualifier}] = notAccepted
		if k == EventUpgrade {
			continue
		}
		if k.IsData() {
			m[messageKey{k, ViolationReturn}] = dataReturn
		} else {
			m[messageKey{k, ViolationReturn}] = lifecycleReturn
		}
	}
	messages = m
}

// Message returns the template reported for v on a handler of kind k.
func Message(k EventKind, v Violation) (Template, bool) {
	t, ok := messages[messageKey{kind: k, v: v}]
	return t, ok
}

// MustMessage is Message for pairs the table is known to cover.
func MustMessage(k EventKind, v Violation) Template {
	t, ok := Message(k, v)
	if !ok {
		panic("contract: no message for " + k.String() + "/" + v.String())
	}
	return t
}

// Templates lists the templates of k, ordered by violation.
func Templates(k EventKind) []Template {
	out := make([]Template, 0, 4)
	for v := ViolationCardinality; v <= ViolationReturn; v++ {
		if t, ok := messages[messageKey{k, v}]; ok {
			out = append(out, t)
		}
	}
	return out
}
