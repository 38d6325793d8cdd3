package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"brokerdash/internal/broker"
)

// HasMore reports whether a tr_cont response header asks for another page.
func HasMore(flag string) bool {
	switch strings.TrimSpace(flag) {
	case "F", "M":
		return true
	}
	return false
}

// FetchAllPages follows KIS continuation until the brokerage reports the last
// page. The returned envelope is the last page's, with output1 replaced by the
// rows of every page in request order. Any failed page fails the whole fetch.
func (c *Client) FetchAllPages(ctx context.Context, op Operation, params Params) (*Envelope, error) {
	ep, ok := operations[op]
	if !ok {
		return nil, &broker.InvalidRequestError{Operation: string(op), Reason: "unknown operation"}
	}

	var (
		cursor Cursor
		rows   []json.RawMessage
	)
	for page := 1; ; page++ {
		resp, err := c.send(ctx, op, params, cursor)
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			return nil, &broker.PageFetchError{
				Operation: string(op),
				Page:      page,
				Status:    resp.Status,
				Body:      truncate(resp.Body),
			}
		}

		env, err := decodeEnvelope(op, resp)
		if err != nil {
			return nil, err
		}
		pageRows, err := DecodeRows[json.RawMessage](env.Output1)
		if err != nil {
			return nil, decodeFailure(op, fmt.Errorf("page %d: %w", page, err))
		}
		rows = append(rows, pageRows...)

		flag := resp.Header.Get("tr_cont")
		if !HasMore(flag) {
			merged, err := json.Marshal(rows)
			if err != nil {
				return nil, decodeFailure(op, err)
			}
			if rows == nil {
				merged = []byte("[]")
			}
			env.Output1 = merged
			c.logger.Debug("pagination complete", "operation", op, "pages", page, "rows", len(rows))
			return env, nil
		}
		if page >= c.maxPages {
			return nil, &broker.PaginationLimitExceeded{Operation: string(op), Limit: c.maxPages}
		}

		fk, nk := env.cursor(ep.cursorWidth)
		cursor = Cursor{FK: strings.TrimSpace(fk), NK: strings.TrimSpace(nk), Flag: "N"}
	}
}
