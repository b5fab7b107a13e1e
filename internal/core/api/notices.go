package api

import (
	"context"

	"github.com/solatis/pricingtable/internal/display"
	"github.com/solatis/pricingtable/internal/types"
)

// NoticesRequest describes the storefront page being viewed.
type NoticesRequest struct {
	UserID       types.ID `json:"user_id,omitempty"`
	CategoryID   types.ID `json:"category_id,omitempty"`
	ShopPage     bool     `json:"shop_page"`
	CategoryPage bool     `json:"category_page"`
}

// NoticesResponse lists the notices to show, role notice first.
type NoticesResponse struct {
	Notices []display.Notice `json:"notices"`
}

// Notices returns the account and category discount notices for a page view.
func (s *PricingService) Notices(ctx context.Context, req *NoticesRequest) (*NoticesResponse, error) {
	user, err := s.viewer(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	ectx := &types.EvaluationContext{
		Now:          s.now(),
		User:         user,
		ShopPage:     req.ShopPage,
		CategoryPage: req.CategoryPage,
	}
	if req.CategoryID != 0 {
		if ectx.Category, err = s.catalog.Category(ctx, req.CategoryID); err != nil {
			return nil, err
		}
	}

	role, err := s.engine.RoleDiscount(ctx, ectx)
	if err != nil {
		return nil, err
	}
	category, err := s.engine.CategoryDiscount(ctx, ectx)
	if err != nil {
		return nil, err
	}

	var queue display.Queue
	s.formatter.QueueNotices(&queue, role, category)
	return &NoticesResponse{Notices: queue.Notices()}, nil
}
