package model

import (
	"github.com/freeeve/dice-decathlon/internal/solver"
	"github.com/freeeve/dice-decathlon/pkg/decathlon"
)

// NewSummary builds the meta scalars for a completed solve.
func NewSummary(root solver.Moments, states int) Summary {
	return Summary{
		EV:            root.EV,
		SD:            root.SD(),
		States:        states,
		SchemaVersion: SchemaVersion,
	}
}

// LongJumpRows maps solver policy entries to persistable rows.
func LongJumpRows(entries []solver.Entry[decathlon.LongJumpState]) []LongJumpRow {
	rows := make([]LongJumpRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, LongJumpRow{
			Phase:       e.State.Phase,
			SumFrozen:   e.State.Sum,
			Counts:      e.Roll,
			FreezeCount: e.Choice,
			EV:          e.Value.EV,
			SD:          e.Value.SD(),
		})
	}
	return rows
}

// SprintRows maps solver policy entries to persistable rows. Both
// candidate actions are stored; the reroll moments stay zero when the
// budget is exhausted and the option never existed.
func SprintRows(entries []solver.Entry[decathlon.SprintState]) []SprintRow {
	rows := make([]SprintRow, 0, len(entries))
	for _, e := range entries {
		row := SprintRow{
			Stage:   e.State.Stage,
			Rerolls: e.State.Rerolls,
			First:   e.State.First,
			Counts:  e.Roll,
			Best:    decathlon.SprintAction(e.Choice).String(),
		}
		for _, d := range e.Options {
			switch d.Code {
			case int(decathlon.Freeze):
				row.EVFreeze = d.Value.EV
				row.SDFreeze = d.Value.SD()
			case int(decathlon.Reroll):
				row.EVReroll = d.Value.EV
				row.SDReroll = d.Value.SD()
			}
		}
		rows = append(rows, row)
	}
	return rows
}
