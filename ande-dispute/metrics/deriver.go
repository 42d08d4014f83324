package metrics

import (
	"github.com/ande-labs/ande/ande-dispute/event"
)

// Deriver turns factory and game events into metrics.
type Deriver struct {
	m Metricer
}

var _ event.Deriver = (*Deriver)(nil)

func NewDeriver(m Metricer) *Deriver {
	return &Deriver{m: m}
}

func (d *Deriver) OnEvent(ev event.Event) bool {
	switch x := ev.(type) {
	case event.ImplementationSetEvent:
		d.m.RecordImplementationSet(x.GameType)
	case event.GameCreatedEvent:
		d.m.RecordGameCreated(x.GameType)
		d.m.RecordBondsEscrowed(x.GameType, x.Bond, false)
	case event.ClaimAddedEvent:
		d.m.RecordMove(x.GameType, x.IsAttack)
		d.m.RecordBondsEscrowed(x.GameType, x.Bond, false)
	case event.StepExecutedEvent:
		d.m.RecordStep(x.GameType, x.ClaimantWon)
	case event.GameStatusChangedEvent:
		d.m.RecordResolution(x.GameType, x.Status)
		d.m.RecordBondsEscrowed(x.GameType, x.Payout, true)
	default:
		return false
	}
	return true
}
