package metrics

import (
	"github.com/ande-labs/ande/ande-dispute/types"
	"github.com/ande-labs/ande/ande-service/eth"
)

type noopMetrics struct{}

var NoopMetrics Metricer = new(noopMetrics)

func (*noopMetrics) RecordInfo(version string)                       {}
func (*noopMetrics) RecordUp()                                       {}
func (*noopMetrics) RecordImplementationSet(gameType types.GameType) {}
func (*noopMetrics) RecordGameCreated(gameType types.GameType)       {}
func (*noopMetrics) RecordMove(gameType types.GameType, isAttack bool) {
}
func (*noopMetrics) RecordStep(gameType types.GameType, claimantWon bool) {
}
func (*noopMetrics) RecordResolution(gameType types.GameType, status types.GameStatus) {
}
func (*noopMetrics) RecordBondsEscrowed(gameType types.GameType, delta eth.ETH, released bool) {
}
