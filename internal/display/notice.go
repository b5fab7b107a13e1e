package display

import (
	"github.com/solatis/pricingtable/internal/pricing"
	"github.com/solatis/pricingtable/internal/types"
)

// NoticeKind classifies a storefront notice.
type NoticeKind string

const (
	NoticeRoleDiscount     NoticeKind = "role_discount"
	NoticeCategoryDiscount NoticeKind = "category_discount"
)

// Notice is a message queued for the current viewer.
type Notice struct {
	ID      string     `json:"id"`
	Kind    NoticeKind `json:"kind"`
	Level   string     `json:"level"`
	Message string     `json:"message"`
}

// NoticeSink receives notices for display.
type NoticeSink interface {
	AddNotice(n Notice)
}

// Queue is a request-scoped NoticeSink.
type Queue struct {
	notices []Notice
}

// AddNotice appends n to the queue.
func (q *Queue) AddNotice(n Notice) {
	q.notices = append(q.notices, n)
}

// Notices returns the queued notices in insertion order.
func (q *Queue) Notices() []Notice {
	out := make([]Notice, len(q.notices))
	copy(out, q.notices)
	return out
}

func newNotice(kind NoticeKind, message string) Notice {
	return Notice{
		ID:      types.NewNoticeID(),
		Kind:    kind,
		Level:   "notice",
		Message: message,
	}
}

// RoleDiscountMessage renders the account discount text. ok is false for
// rule types without a message.
func (f *Formatter) RoleDiscountMessage(d pricing.RoleDiscount) (string, bool) {
	switch d.Type {
	case types.RulePercentProduct:
		return f.Sprintf("Hi %s, as a %s customer you receive a %s percent discount on all products.",
			d.DisplayName, d.Role, f.Number(d.Amount)), true
	case types.RuleFixedProduct:
		return f.Sprintf("Hi %s, as a %s customer you receive a %s discount on all products.",
			d.DisplayName, d.Role, f.Price(d.Amount)), true
	default:
		return "", false
	}
}

// CategoryDiscountMessage renders the category discount text. ok is false
// for rule types without a message.
func (f *Formatter) CategoryDiscountMessage(d pricing.CategoryDiscount) (string, bool) {
	switch d.Type {
	case types.RulePercentProduct:
		return f.Sprintf("You will receive a %s percent discount on all products within the %s category.",
			f.Number(d.Amount), d.CategoryName), true
	case types.RuleFixedProduct:
		return f.Sprintf("You will receive %s discount on all products within the %s category.",
			f.Price(d.Amount), d.CategoryName), true
	default:
		return "", false
	}
}

// QueueNotices renders the discounts that are present and adds them to sink,
// role notice first. Nil discounts are skipped.
func (f *Formatter) QueueNotices(sink NoticeSink, role *pricing.RoleDiscount, category *pricing.CategoryDiscount) {
	if role != nil {
		if msg, ok := f.RoleDiscountMessage(*role); ok {
			sink.AddNotice(newNotice(NoticeRoleDiscount, msg))
		}
	}
	if category != nil {
		if msg, ok := f.CategoryDiscountMessage(*category); ok {
			sink.AddNotice(newNotice(NoticeCategoryDiscount, msg))
		}
	}
}
