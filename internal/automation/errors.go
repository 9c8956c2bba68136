package automation

import "errors"

// Domain errors for the automation package.
//
//	if errors.Is(err, automation.ErrInvalidConnection) {
//	    // reject the rule
//	}
var (
	// ErrInvalidConfiguration is returned when a descriptor, module or rule
	// is malformed or its configuration values do not match the declared
	// parameters.
	ErrInvalidConfiguration = errors.New("automation: invalid configuration")

	// ErrInvalidConnection is returned when a connection string does not
	// parse as "moduleId.outputName" or names a module that does not exist.
	ErrInvalidConnection = errors.New("automation: invalid connection")

	// ErrDuplicateModuleID is returned when two modules of one rule or
	// composite share an id.
	ErrDuplicateModuleID = errors.New("automation: duplicate module id")

	// ErrDuplicateKey is returned when a parameter, input or output name is
	// declared twice.
	ErrDuplicateKey = errors.New("automation: duplicate key")

	// ErrUnknownInput is returned when a connection targets an input the
	// descriptor does not declare.
	ErrUnknownInput = errors.New("automation: unknown input")

	// ErrUnknownOutput is returned when a connection or reference names an
	// output the producer does not declare.
	ErrUnknownOutput = errors.New("automation: unknown output")

	// ErrUnknownModuleType is returned when a module type UID is not
	// registered.
	ErrUnknownModuleType = errors.New("automation: unknown module type")

	// ErrRuleNotFound is returned when a rule UID does not exist.
	ErrRuleNotFound = errors.New("automation: rule not found")

	// ErrRuleExists is returned when creating a rule whose UID is taken.
	ErrRuleExists = errors.New("automation: rule already exists")

	// ErrParse is returned when a definition file cannot be decoded.
	ErrParse = errors.New("automation: parse error")
)
