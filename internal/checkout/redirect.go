package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ErrNoRedirectForm means the gateway's payload contained nothing
// submittable; that is a payment failure, not a silent no-op.
var ErrNoRedirectForm = errors.New("redirect payload contains no form")

// RedirectForm is the submittable form extracted from the payment
// gateway's HTML fragment.
type RedirectForm struct {
	Action string
	Method string
	Fields url.Values
}

// ParseRedirectForm locates the first <form> in the fragment and pulls
// out its action, method and input fields.
func ParseRedirectForm(fragment string) (*RedirectForm, error) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("failed to parse redirect payload: %w", err)
	}

	node := findForm(doc)
	if node == nil {
		return nil, ErrNoRedirectForm
	}

	form := &RedirectForm{
		Method: http.MethodPost,
		Fields: url.Values{},
	}
	for _, attr := range node.Attr {
		switch strings.ToLower(attr.Key) {
		case "action":
			form.Action = attr.Val
		case "method":
			if m := strings.ToUpper(strings.TrimSpace(attr.Val)); m != "" {
				form.Method = m
			}
		}
	}

	collectInputs(node, form.Fields)
	return form, nil
}

func findForm(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "form" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findForm(c); found != nil {
			return found
		}
	}
	return nil
}

func collectInputs(n *html.Node, fields url.Values) {
	if n.Type == html.ElementNode && n.Data == "input" {
		var name, value string
		for _, attr := range n.Attr {
			switch strings.ToLower(attr.Key) {
			case "name":
				name = attr.Val
			case "value":
				value = attr.Val
			}
		}
		if name != "" {
			fields.Set(name, value)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectInputs(c, fields)
	}
}

// FormSubmitter hands control to the payment gateway by submitting the
// redirect form, the programmatic equivalent of the browser auto-submit.
type FormSubmitter interface {
	Submit(ctx context.Context, form *RedirectForm) error
}

type httpFormSubmitter struct {
	client *http.Client
}

// NewFormSubmitter creates a submitter that replays the form over HTTP.
func NewFormSubmitter(client *http.Client) FormSubmitter {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpFormSubmitter{client: client}
}

func (s *httpFormSubmitter) Submit(ctx context.Context, form *RedirectForm) error {
	if form.Action == "" {
		return errors.New("redirect form has no action")
	}

	var req *http.Request
	var err error

	if form.Method == http.MethodGet {
		target := form.Action
		if encoded := form.Fields.Encode(); encoded != "" {
			target += "?" + encoded
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, form.Method, form.Action,
			strings.NewReader(form.Fields.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach payment gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("payment gateway returned %d", resp.StatusCode)
	}
	return nil
}
