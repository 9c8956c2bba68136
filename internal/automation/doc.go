// Package automation describes rules and the module types they are built
// from.
//
// A rule runs its actions, in order, when any of its triggers fires and
// all of its conditions hold. Each trigger, condition and action is a
// Module: a use of a module type (a Descriptor) with configuration values
// and, for conditions and actions, connections from its inputs to outputs
// of other modules in the same rule.
//
// Architecture:
//
//	┌───────────────┐   ┌───────────────┐
//	│ TypeRegistry  │   │ RuleRegistry  │◀── Managed (storage "rules")
//	│ (types.go)    │   │ (rules.go)    │◀── FileProvider (rules dir)
//	└──────▲────────┘   └──────┬────────┘
//	       │ ModuleType        │ Instantiate
//	┌──────┴────────┐   ┌──────▼────────┐
//	│ core types    │   │ Factory       │
//	│ FileProvider  │   │ (factory.go)  │
//	└───────────────┘   └───────────────┘
//
// # Composite module types
//
// A composite Descriptor is built from child modules of its own kind. Its
// inputs feed child inputs ("child.input") and its outputs expose child
// outputs ("child.output"). Child configuration may refer to the
// composite's parameters as "${name}"; rule modules may refer to rule
// parameters the same way.
//
// # Definition files
//
// YAMLParser reads module types grouped by kind and rules as a "rules"
// list. JSON documents are accepted.
//
// # Usage
//
//	types := automation.NewTypeRegistry()
//	types.AddProvider(automation.NewCoreTypeProvider())
//
//	rules := automation.NewRuleRegistry(types, nil, log)
//	rules.SetManagedProvider(automation.NewManagedRuleProvider())
//
//	rule, err := rules.Create(ctx, automation.RuleSpec{
//	    Name:     "hall light",
//	    Triggers: []automation.Module{{ID: "t", TypeUID: automation.GenericCronTrigger, ...}},
//	    Actions:  []automation.Module{{ID: "a", TypeUID: automation.ItemCommandAction, ...}},
//	})
package automation
