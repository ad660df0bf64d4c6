package manifest

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/sequor-org/sequor/internal/suite"
)

// Build compiles a manifest into test declarations. baseURL overrides
// the manifest's own BaseURL when non-empty. Every compiled action runs
// its HTTP check and turns response mismatches into assertion errors, so
// an eventually block retries them while transport failures surface
// immediately.
func Build(def *Definition, baseURL string) ([]suite.Test, error) {
	if baseURL == "" {
		baseURL = def.BaseURL
	}
	if baseURL == "" {
		return nil, fmt.Errorf("manifest %q: base URL is required", def.Suite)
	}

	client := resty.New().SetBaseURL(baseURL)

	tests := make([]suite.Test, 0, len(def.Tests))
	for _, td := range def.Tests {
		action, err := compileAction(client, td)
		if err != nil {
			return nil, fmt.Errorf("test %q: %w", td.Name, err)
		}
		tests = append(tests, suite.Test{
			Name:            td.Name,
			Groups:          td.Groups,
			DependsOn:       td.DependsOn,
			RunsAfter:       td.RunsAfter,
			RunsAfterGroups: td.RunsAfterGroups,
			AlwaysRun:       td.AlwaysRun,
			Action:          action,
		})
	}
	return tests, nil
}

func compileAction(client *resty.Client, td TestDef) (suite.Action, error) {
	method := strings.ToUpper(td.Request.Method)
	if method == "" {
		method = http.MethodGet
	}
	if td.Request.Path == "" {
		return nil, fmt.Errorf("request path is required")
	}

	expect := td.Expect
	if expect.Status == 0 {
		expect.Status = http.StatusOK
	}

	check := func(ctx context.Context) error {
		req := client.R().SetContext(ctx).SetHeaders(td.Request.Headers)
		if td.Request.Body != "" {
			req.SetBody(td.Request.Body)
		}

		resp, err := req.Execute(method, td.Request.Path)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		return assertResponse(resp, expect)
	}

	if td.Eventually == nil {
		return check, nil
	}

	spec := suite.PollSpec{
		Attempts: td.Eventually.Attempts,
		Interval: td.Eventually.Interval,
		Factor:   td.Eventually.Factor,
	}
	return func(ctx context.Context) error {
		return suite.Eventually(ctx, check, spec)
	}, nil
}

func assertResponse(resp *resty.Response, expect ExpectDef) error {
	if resp.StatusCode() != expect.Status {
		return suite.Assertf("status is %d, want %d", resp.StatusCode(), expect.Status)
	}

	body := resp.Body()
	for _, a := range expect.Assert {
		result := gjson.GetBytes(body, a.Path)
		if a.Exists && !result.Exists() {
			return suite.Assertf("path %q missing from response", a.Path)
		}
		if a.Equals != "" {
			if !result.Exists() {
				return suite.Assertf("path %q missing from response", a.Path)
			}
			if result.String() != a.Equals {
				return suite.Assertf("path %q is %q, want %q", a.Path, result.String(), a.Equals)
			}
		}
	}
	return nil
}
