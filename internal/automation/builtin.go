package automation

import (
	"fmt"

	"github.com/nerrad567/gray-logic-links/internal/provider"
)

// Core module type UIDs.
const (
	ItemStateChangeTrigger = "core.ItemStateChangeTrigger"
	ItemCommandTrigger     = "core.ItemCommandTrigger"
	GenericCronTrigger     = "timer.GenericCronTrigger"
	TimeOfDayTrigger       = "timer.TimeOfDayTrigger"
	ItemStateCondition     = "core.ItemStateCondition"
	ItemCommandAction      = "core.ItemCommandAction"
	RunRuleAction          = "core.RunRuleAction"
)

// Comparison operators accepted by ItemStateCondition.
var stateOperators = []string{"=", "!=", "<", "<=", ">", ">="}

// CoreModuleTypes returns the built-in module types.
func CoreModuleTypes() []*Descriptor {
	itemName := ConfigParameter{Name: "itemName", Type: TypeText, Required: true, Label: "Item"}
	event := Output{Name: "event", Type: "Event", Label: "Event"}

	return []*Descriptor{
		mustDescriptor(NewTriggerDescriptor(ItemStateChangeTrigger,
			[]ConfigParameter{
				itemName,
				{Name: "previousState", Type: TypeText, Label: "Previous state"},
				{Name: "state", Type: TypeText, Label: "State"},
			},
			[]Output{
				{Name: "newState", Type: "State", Label: "New state"},
				{Name: "oldState", Type: "State", Label: "Old state"},
				event,
			},
			WithLabel("an item state changes"))),
		mustDescriptor(NewTriggerDescriptor(ItemCommandTrigger,
			[]ConfigParameter{
				itemName,
				{Name: "command", Type: TypeText, Label: "Command"},
			},
			[]Output{{Name: "command", Type: "Command", Label: "Command"}, event},
			WithLabel("an item receives a command"))),
		mustDescriptor(NewTriggerDescriptor(GenericCronTrigger,
			[]ConfigParameter{{Name: "cronExpression", Type: TypeText, Required: true, Label: "Cron expression"}},
			[]Output{event},
			WithLabel("a cron expression fires"))),
		mustDescriptor(NewTriggerDescriptor(TimeOfDayTrigger,
			[]ConfigParameter{{Name: "time", Type: TypeText, Required: true, Label: "Time", Description: "HH:MM"}},
			[]Output{event},
			WithLabel("it is a fixed time of day"))),
		mustDescriptor(NewConditionDescriptor(ItemStateCondition,
			[]ConfigParameter{
				itemName,
				{Name: "operator", Type: TypeText, Default: "=", Options: stateOperators, Label: "Operator"},
				{Name: "state", Type: TypeText, Required: true, Label: "State"},
			},
			nil,
			WithLabel("an item has a given state"))),
		mustDescriptor(NewActionDescriptor(ItemCommandAction,
			[]ConfigParameter{
				itemName,
				{Name: "command", Type: TypeText, Label: "Command"},
			},
			[]Input{{Name: "command", Type: "Command", Label: "Command"}},
			nil,
			WithLabel("send a command"))),
		mustDescriptor(NewActionDescriptor(RunRuleAction,
			[]ConfigParameter{
				{Name: "ruleUIDs", Type: TypeText, Required: true, Label: "Rules", Description: "comma separated rule UIDs"},
				{Name: "considerConditions", Type: TypeBoolean, Default: true, Label: "Consider conditions"},
			},
			nil, nil,
			WithLabel("run rules"))),
	}
}

// NewCoreTypeProvider returns a provider serving CoreModuleTypes.
func NewCoreTypeProvider() *provider.Static[*Descriptor] {
	return provider.NewStatic(CoreModuleTypes()...)
}

func mustDescriptor(d *Descriptor, err error) *Descriptor {
	if err != nil {
		panic(fmt.Sprintf("automation: core module type: %v", err))
	}
	return d
}
