package types

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
	SideHold Side = "hold"
)

// Decision is the output of one signal evaluation cycle. For a hold decision
// the stop loss and take profit fields are zero.
type Decision struct {
	Symbol     string    `yaml:"symbol" json:"symbol" validate:"required"`
	Side       Side      `yaml:"side" json:"side" validate:"required,oneof=buy sell hold"`
	Price      float64   `yaml:"price" json:"price" validate:"gte=0"`
	StopLoss   float64   `yaml:"stop_loss" json:"stop_loss" validate:"gte=0"`
	TakeProfit float64   `yaml:"take_profit" json:"take_profit" validate:"gte=0"`
	Time       time.Time `yaml:"time" json:"time"`
	// BuyScore and SellScore are the number of satisfied entry conditions out
	// of the configured condition list.
	BuyScore  int    `yaml:"buy_score" json:"buy_score" validate:"gte=0"`
	SellScore int    `yaml:"sell_score" json:"sell_score" validate:"gte=0"`
	Reason    string `yaml:"reason" json:"reason"`
}

// Hold returns a hold decision for the given symbol.
func Hold(symbol string, price float64, t time.Time, reason string) Decision {
	return Decision{
		Symbol: symbol,
		Side:   SideHold,
		Price:  price,
		Time:   t,
		Reason: reason,
	}
}

// IsActionable reports whether the decision requests opening a position.
func (d *Decision) IsActionable() bool {
	return d.Side == SideBuy || d.Side == SideSell
}

// Validate checks the decision's structure and, for non-hold decisions, the
// stop/take ordering invariant: buy requires stop_loss < price < take_profit,
// sell requires take_profit < price < stop_loss. NaN or infinite values are
// rejected so they never cross a component boundary.
func (d *Decision) Validate() error {
	for _, v := range []float64{d.Price, d.StopLoss, d.TakeProfit} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New(errors.ErrCodeInvalidDecision, "decision contains non-finite value")
		}
	}

	validate := validator.New()
	if err := validate.Struct(d); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDecision, "invalid decision", err)
	}

	if !d.IsActionable() {
		return nil
	}

	if d.Price <= 0 {
		return errors.Newf(errors.ErrCodeInvalidDecision, "non-hold decision requires positive price, got %f", d.Price)
	}

	switch d.Side {
	case SideBuy:
		if !(d.StopLoss < d.Price && d.Price < d.TakeProfit) {
			return errors.Newf(errors.ErrCodeInvalidStopLoss,
				"buy decision requires stop_loss < price < take_profit, got %f/%f/%f",
				d.StopLoss, d.Price, d.TakeProfit)
		}
	case SideSell:
		if !(d.TakeProfit < d.Price && d.Price < d.StopLoss) {
			return errors.Newf(errors.ErrCodeInvalidStopLoss,
				"sell decision requires take_profit < price < stop_loss, got %f/%f/%f",
				d.TakeProfit, d.Price, d.StopLoss)
		}
	}

	return nil
}
