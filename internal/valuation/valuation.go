package valuation

import "github.com/STTM-NSU/pricefeed/internal/model"

// Evaluate revalues positions at the batch's ltp and reports stop-loss
// breaches. A position breaches when it has a stop-loss and ltp <= stop-loss.
// Only the sampled ltp counts; what the price did between ticks is unknown.
// Positions whose symbol is missing from the batch are returned unchanged.
func Evaluate(batch model.Batch, positions []model.Position) ([]model.Position, []model.Breach) {
	quotes := batch.Index()

	updated := make([]model.Position, 0, len(positions))
	var breaches []model.Breach
	for _, pos := range positions {
		q, ok := quotes[pos.Symbol]
		if !ok {
			updated = append(updated, pos)
			continue
		}

		pos.Revalue(q.LTP)
		pos.IsUp = q.IsUp
		updated = append(updated, pos)

		if pos.HasStopLoss() && q.LTP <= *pos.StopLoss {
			breaches = append(breaches, model.Breach{Position: pos, LTP: q.LTP})
		}
	}
	return updated, breaches
}
