package infra

import "context"

// MessageSender delivers a formatted text to the shop's messaging channel.
type MessageSender interface {
	SendMessage(ctx context.Context, text string) error
	Enabled() bool
}

// TextGenerator writes short marketing copy for a product.
type TextGenerator interface {
	DescribeProduct(ctx context.Context, productName string) (string, error)
}
