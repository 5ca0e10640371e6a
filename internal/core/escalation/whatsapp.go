// Package escalation hands a conversation over to a human advisor through
// a WhatsApp deep link.
package escalation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// Channel names the human team a conversation is escalated to.
type Channel string

const (
	ChannelSales   Channel = "sales"
	ChannelSupport Channel = "support"
)

// Dispatcher escalates a conversation to a human channel.
type Dispatcher interface {
	Escalate(ctx context.Context, channel Channel, summary string) error
}

// Opener opens a link in a new browsing context.
type Opener interface {
	Open(ctx context.Context, link string) error
}

var mobileUA = regexp.MustCompile(`(?i)android|iphone|ipad|ipod|opera mini|iemobile|wpdesktop`)

// IsMobileUserAgent resolves the mobile hint once, at the HTTP boundary.
func IsMobileUserAgent(userAgent string) bool {
	return mobileUA.MatchString(userAgent)
}

// BuildLink returns the wa.me link on mobile and the web client link otherwise.
func BuildLink(phone, message string, mobile bool) string {
	encoded := encodeURIComponent(message)
	if mobile {
		return fmt.Sprintf("https://wa.me/%s?text=%s", phone, encoded)
	}
	return fmt.Sprintf("https://web.whatsapp.com/send?phone=%s&text=%s", phone, encoded)
}

// encodeURIComponent escapes spaces as %20, the way browsers build these links.
func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// WhatsAppDispatcher builds a deep link to the advisor's number and opens it.
type WhatsAppDispatcher struct {
	phone  string
	mobile bool
	opener Opener
}

func NewWhatsAppDispatcher(phone string, mobile bool, opener Opener) *WhatsAppDispatcher {
	return &WhatsAppDispatcher{phone: phone, mobile: mobile, opener: opener}
}

func (d *WhatsAppDispatcher) Escalate(ctx context.Context, channel Channel, summary string) error {
	if d.opener == nil {
		return errors.New("escalation: no opener configured")
	}
	link := BuildLink(d.phone, summary, d.mobile)
	if err := d.opener.Open(ctx, link); err != nil {
		return fmt.Errorf("open %s escalation link: %w", channel, err)
	}
	return nil
}

var _ Dispatcher = (*WhatsAppDispatcher)(nil)

// Outbox is an Opener that keeps links for the widget to open client side.
type Outbox struct {
	mu    sync.Mutex
	links []string
}

func (o *Outbox) Open(_ context.Context, link string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.links = append(o.links, link)
	return nil
}

// Last returns the most recent link, or "" when nothing was opened.
func (o *Outbox) Last() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.links) == 0 {
		return ""
	}
	return o.links[len(o.links)-1]
}

// Drain returns and forgets every pending link.
func (o *Outbox) Drain() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.links
	o.links = nil
	return out
}
