package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultBaseURL = "http://localhost:8080"

// TestContext carries HTTP state across the steps of one scenario.
type TestContext struct {
	BaseURL string
	client  *http.Client

	lastStatus int
	lastBody   []byte
	lastJSON   map[string]any

	interviewID string
	resumeToken string
	savedState  map[string]any
}

func NewTestContext() *TestContext {
	base := os.Getenv("VISAFLOW_BASE_URL")
	if base == "" {
		base = defaultBaseURL
	}
	return &TestContext{
		BaseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastJSON = nil
	tc.interviewID = ""
	tc.resumeToken = ""
	tc.savedState = nil
}

func (tc *TestContext) Do(method, path string, body any, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated && tc.resumeToken != "" {
		req.Header.Set("Authorization", "Bearer "+tc.resumeToken)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastJSON = nil
	if len(tc.lastBody) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var decoded map[string]any
		if err := json.Unmarshal(tc.lastBody, &decoded); err == nil {
			tc.lastJSON = decoded
		}
	}
	return nil
}

func (tc *TestContext) GetLastResponseStatus() int     { return tc.lastStatus }
func (tc *TestContext) GetLastResponseBody() []byte    { return tc.lastBody }
func (tc *TestContext) GetInterviewID() string         { return tc.interviewID }
func (tc *TestContext) SetInterviewID(id string)       { tc.interviewID = id }
func (tc *TestContext) GetResumeToken() string         { return tc.resumeToken }
func (tc *TestContext) SetResumeToken(token string)    { tc.resumeToken = token }
func (tc *TestContext) SavedState() map[string]any     { return tc.savedState }
func (tc *TestContext) SaveState(state map[string]any) { tc.savedState = state }

// GetResponseField resolves a dotted path such as "interview.current_step_id"
// in the last JSON response.
func (tc *TestContext) GetResponseField(path string) (any, error) {
	if tc.lastJSON == nil {
		return nil, fmt.Errorf("last response is not a JSON object: %s", string(tc.lastBody))
	}
	var cur any = tc.lastJSON
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", path, part)
		}
		cur, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %q not found in response", path)
		}
	}
	return cur, nil
}
