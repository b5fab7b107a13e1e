package api

import (
	"context"
	"fmt"

	"github.com/solatis/pricingtable/internal/display"
	"github.com/solatis/pricingtable/internal/types"
)

// ProductPricingRequest asks for the pricing tables of one product page.
type ProductPricingRequest struct {
	ProductID types.ID `json:"product_id"`
	UserID    types.ID `json:"user_id,omitempty"`

	// Price overrides the catalog price, e.g. for the selected variation.
	Price *float64 `json:"price,omitempty"`
}

// ProductPricingResponse carries everything a product page renders.
type ProductPricingResponse struct {
	ProductID      types.ID        `json:"product_id"`
	BasePrice      float64         `json:"base_price"`
	RuleSetKeys    []string        `json:"rule_set_keys"`
	Tables         []display.Table `json:"tables"`
	AdjustedPrices []AdjustedPrice `json:"adjusted_prices"`
	LowestPrice    *float64        `json:"lowest_price,omitempty"`
	LowestLabel    string          `json:"lowest_price_label,omitempty"`
}

// AdjustedPrice is the price produced by one continuous rule set.
type AdjustedPrice struct {
	RuleSetKey string  `json:"rule_set_key"`
	Price      float64 `json:"price"`
	Label      string  `json:"label"`
}

func (r *ProductPricingRequest) validate() error {
	if r.ProductID <= 0 {
		return fmt.Errorf("product_id must be positive")
	}
	if r.Price != nil && *r.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	return nil
}

// ProductPricing selects and renders the rule sets for a product page.
func (s *PricingService) ProductPricing(ctx context.Context, req *ProductPricingRequest) (*ProductPricingResponse, error) {
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}

	product, err := s.catalog.Product(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if req.Price != nil {
		product.Price = *req.Price
	}

	user, err := s.viewer(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	ectx := &types.EvaluationContext{
		Now:     s.now(),
		User:    user,
		Product: product,
	}

	sets, err := s.engine.PricingTables(ctx, ectx)
	if err != nil {
		return nil, err
	}

	resp := &ProductPricingResponse{
		ProductID:      product.ID,
		BasePrice:      product.Price,
		RuleSetKeys:    make([]string, 0, len(sets)),
		Tables:         s.formatter.Tables(sets),
		AdjustedPrices: []AdjustedPrice{},
	}

	calc := s.engine.Calculator()
	for _, rs := range sets {
		resp.RuleSetKeys = append(resp.RuleSetKeys, rs.Key)
		if price, ok := calc.AdjustedPrice(rs, product.Price); ok {
			resp.AdjustedPrices = append(resp.AdjustedPrices, AdjustedPrice{
				RuleSetKey: rs.Key,
				Price:      price,
				Label:      s.formatter.Price(price),
			})
		}
	}

	lowest, ok := s.engine.LowestOf(sets, product.Price)
	if ok {
		resp.LowestPrice = &lowest
		resp.LowestLabel = s.formatter.Sprintf("As low as %s", s.formatter.Price(lowest))
	}

	s.logger.DebugContext(ctx, "priced product",
		"product_id", int64(product.ID),
		"rule_sets", len(sets),
		"lowest", ok,
	)
	return resp, nil
}
