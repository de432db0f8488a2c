package stress

import (
	"errors"

	"github.com/wonny/aegis-risk/internal/contracts"
)

var (
	ErrNoPrices     = errors.New("price matrix is empty")
	ErrInvalidInput = errors.New("invalid stress input")
)

// Tester 스트레스 테스트 파사드
//  1. 결정적 시나리오 충격: 자산별 % 충격을 현재가에 적용 후 재평가
//  2. 과거 구간 스트레스: 룩백 내 최악의 N일 손익
//
// Tester shares the valuation step with the report builder and never mutates
// its inputs.
type Tester struct {
	positions []contracts.Position
	prices    *contracts.PriceMatrix
}

// NewTester creates a stress tester over validated positions and prices.
func NewTester(positions []contracts.Position, prices *contracts.PriceMatrix) *Tester {
	return &Tester{
		positions: append([]contracts.Position(nil), positions...),
		prices:    prices,
	}
}
