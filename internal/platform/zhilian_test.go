package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestZhilian(t *testing.T, handler http.HandlerFunc) *Zhilian {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	z := NewZhilian("session=abc", "resume-9", nil, zap.NewNop())
	z.baseURL = srv.URL
	return z
}

func TestZhilianSearchParsesPostings(t *testing.T) {
	z := newTestZhilian(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/c/i/sou", r.URL.Path)
		assert.Equal(t, "golang", r.URL.Query().Get("kw"))
		assert.Equal(t, "538", r.URL.Query().Get("cityId"))

		w.Write([]byte(`{"code":200,"data":{"results":[
			{"number":"n1","jobName":"Go工程师","salary":"15K-25K","recruiterName":"李女士",
			 "company":{"name":"Acme","size":{"name":"100-499人"}},
			 "city":{"display":"上海"},"workingExp":{"name":"3-5年"},"eduLevel":{"name":"本科"},
			 "welfare":[{"name":"五险一金"},{"name":"年终奖"}]},
			{"number":"","jobName":"broken entry"}
		]}}`))
	})

	postings, err := z.Search(context.Background(), "golang", "538", 1)
	require.NoError(t, err)

	require.Len(t, postings, 1)
	p := postings[0]
	assert.Equal(t, "n1", p.ID)
	assert.Equal(t, "Acme", p.CompanyName)
	assert.Equal(t, "上海", p.City)
	assert.Equal(t, 15, p.SalaryMin)
	assert.Equal(t, 25, p.SalaryMax)
	assert.Equal(t, []string{"五险一金", "年终奖"}, p.Tags)
}

// 智联 signals success with code 200; anything else on an HTTP 200 is a
// malformed response, not a transport failure.
func TestZhilianSearchNon200CodeIsParseError(t *testing.T) {
	z := newTestZhilian(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":6001,"message":"参数异常"}`))
	})

	_, err := z.Search(context.Background(), "go", "538", 1)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.False(t, IsRetryable(err))
}

func TestZhilianDeliverOutcomes(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		outcome Outcome
	}{
		{"delivered", `{"code":200}`, Delivered},
		{"already delivered", `{"code":201}`, AlreadyDelivered},
		{"rejected", `{"code":400,"message":"职位已下线"}`, Rejected},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			z := newTestZhilian(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/c/i/resume/deliver", r.URL.Path)

				var payload zhilianDeliverPayload
				require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
				assert.Equal(t, "j1", payload.JobNumber)
				assert.Equal(t, "resume-9", payload.ResumeNumber)

				w.Write([]byte(c.body))
			})

			res, err := z.Deliver(context.Background(), testPosting(), "")
			require.NoError(t, err)
			assert.Equal(t, c.outcome, res.Outcome)
		})
	}
}
