package wsman

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	r2xml "github.com/arturoeanton/go-xml/xml"
)

// WQLOptions configures an Enumerate/WQL query.
type WQLOptions struct {
	// Namespace is the WMI namespace to query, e.g. "root/cimv2". Defaults
	// to root/cimv2/* when empty.
	Namespace string
	// MaxElements bounds how many items the server may return per
	// EnumerateResponse. Defaults to 32000, matching spec.md's run_wql.
	MaxElements int
}

// RunWQL issues a WQL query as a WS-Management Enumerate operation against
// the WMI resource and normalizes the result.
//
// The Items element of the response has one child per matched CIM instance,
// named after the CIM class (e.g. Win32_Service); the set of possible class
// names is unbounded and data-dependent, so normalization goes through
// arturoeanton/go-xml's MapXML rather than a fixed encoding/xml struct -
// the same reasoning the retrieval pack's kolide/launcher WMI client gives
// for avoiding a statically typed mapping of CIM results.
func (c *Client) RunWQL(ctx context.Context, wql string, opts WQLOptions) (map[string][]Record, error) {
	if strings.TrimSpace(wql) == "" {
		return nil, fmt.Errorf("wsman: empty WQL query")
	}
	maxElements := opts.MaxElements
	if maxElements <= 0 {
		maxElements = 32000
	}

	resourceURI := ResourceURIWMI(opts.Namespace)
	env := c.baseEnvelope(ActionEnumerate, resourceURI).WithEnumerationNamespace()

	body := `<n:Enumerate xmlns:n="` + NsEnumeration + `">` +
		`<w:OptimizeEnumeration/>` +
		`<w:MaxElements>` + fmt.Sprint(maxElements) + `</w:MaxElements>` +
		`<w:Filter Dialect="` + DialectWQL + `">` + xmlEscape(wql) + `</w:Filter>` +
		`</n:Enumerate>`
	env.WithBody([]byte(body))

	respBody, err := c.sendEnvelope(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("wsman: enumerate: %w", err)
	}

	return NormalizeItems(respBody)
}

// NormalizeItems walks a SOAP Enumerate response and normalizes the Items
// element into a map keyed by CIM class (element) name. Single-occurrence
// elements are still returned as a one-element slice so callers never have
// to special-case cardinality.
func NormalizeItems(respBody []byte) (map[string][]Record, error) {
	root, err := r2xml.MapXML(bytes.NewReader(respBody))
	if err != nil {
		return nil, fmt.Errorf("wsman: parse enumerate response: %w", err)
	}

	items := findItems(root)
	if items == nil {
		return map[string][]Record{}, nil
	}

	result := make(map[string][]Record)
	items.ForEach(func(key string, value any) bool {
		if strings.HasPrefix(key, "@") || strings.HasPrefix(key, "#") {
			return true
		}
		switch v := value.(type) {
		case []any:
			for _, item := range v {
				result[key] = append(result[key], toRecord(item))
			}
		default:
			result[key] = append(result[key], toRecord(v))
		}
		return true
	})
	return result, nil
}

// findItems locates the (possibly namespace-qualified) "Items" element
// anywhere in the decoded document.
func findItems(node *r2xml.OrderedMap) *r2xml.OrderedMap {
	matches, err := r2xml.QueryAll(node, "//Items")
	if err != nil || len(matches) == 0 {
		return nil
	}
	if m, ok := matches[0].(*r2xml.OrderedMap); ok {
		return m
	}
	return nil
}

// toRecord coerces one decoded Items child (an *OrderedMap, or a bare
// string for an empty/text-only element) into a Record: attributes plus
// text plus any nested element text.
func toRecord(value any) Record {
	rec := Record{Attributes: map[string]string{}, Children: map[string]string{}}

	switch v := value.(type) {
	case string:
		rec.Text = v
		return rec
	case *r2xml.OrderedMap:
		v.ForEach(func(key string, val any) bool {
			switch {
			case strings.HasPrefix(key, "@"):
				rec.Attributes[strings.TrimPrefix(key, "@")] = fmt.Sprint(val)
			case key == "#text":
				rec.Text = fmt.Sprint(val)
			case key == "#seq" || key == "#comments":
				// document-order/comment bookkeeping, not part of the record
			default:
				rec.Children[key] = childText(val)
			}
			return true
		})
		return rec
	default:
		rec.Text = fmt.Sprint(v)
		return rec
	}
}

func childText(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case *r2xml.OrderedMap:
		if t := v.Get("#text"); t != nil {
			return fmt.Sprint(t)
		}
	}
	return fmt.Sprint(val)
}
