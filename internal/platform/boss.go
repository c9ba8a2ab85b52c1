package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/yunhdeng/job-bot/internal/model"
)

const (
	bossPageSize = 30
	// Postings older than this are considered stale and dropped during
	// parsing, before the filter engine sees them.
	bossStaleAfter = 7 * 24 * time.Hour
)

// Boss is the reference adapter, targeting Boss直聘's geek search API.
type Boss struct {
	baseURL string
	cookie  string
	client  *http.Client
	log     *zap.Logger
	now     func() time.Time
}

// NewBoss builds the Boss adapter. cookie is the opaque session token from
// the credential collaborator; proxy may be nil for a direct connection.
func NewBoss(cookie string, proxy ProxyFunc, log *zap.Logger) *Boss {
	return &Boss{
		baseURL: "https://www.zhipin.com",
		cookie:  cookie,
		client:  newHTTPClient(proxy),
		log:     log.Named("boss"),
		now:     time.Now,
	}
}

func (b *Boss) Name() string { return "boss" }

// bossEnvelope mirrors the common {code, message, zpData} response shape.
type bossEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	ZpData  json.RawMessage `json:"zpData"`
}

type bossJobList struct {
	JobList []bossJob `json:"jobList"`
}

type bossJob struct {
	EncryptJobID  string   `json:"encryptJobId"`
	JobName       string   `json:"jobName"`
	BrandName     string   `json:"brandName"`
	BrandComName  string   `json:"brandComName"`
	CityName      string   `json:"cityName"`
	SalaryDesc    string   `json:"salaryDesc"`
	BossName      string   `json:"bossName"`
	CompanySize   string   `json:"companySize"`
	JobExperience string   `json:"jobExperience"`
	JobDegree     string   `json:"jobDegree"`
	JobLabels     []string `json:"jobLabels"`
	JobDesc       string   `json:"jobDesc"`
	Industry      string   `json:"industryName"`
	UpdateTime    string   `json:"updateTime"`
}

// Search fetches one page of the joblist endpoint. An empty page with a nil
// error terminates pagination.
func (b *Boss) Search(ctx context.Context, keyword, city string, page int) ([]model.Posting, error) {
	params := url.Values{}
	params.Set("query", keyword)
	params.Set("city", city)
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(bossPageSize))

	var env bossEnvelope
	reqURL := b.baseURL + "/wapi/zpgeek/search/joblist.json?" + params.Encode()
	if err := getJSON(ctx, b.client, reqURL, b.cookie, "boss search", &env); err != nil {
		return nil, err
	}
	if env.Code != 0 {
		if sessionInvalid(env.Message) {
			return nil, fmt.Errorf("boss search: %s: %w", env.Message, ErrSessionExpired)
		}
		return nil, &ParseError{Op: "boss search", Err: fmt.Errorf("code %d: %s", env.Code, env.Message)}
	}

	var list bossJobList
	if err := json.Unmarshal(env.ZpData, &list); err != nil {
		return nil, &ParseError{Op: "boss search", Err: err}
	}
	return b.parseJobs(list.JobList), nil
}

func (b *Boss) parseJobs(jobs []bossJob) []model.Posting {
	postings := make([]model.Posting, 0, len(jobs))
	for _, j := range jobs {
		if j.EncryptJobID == "" || j.JobName == "" {
			b.log.Warn("job entry missing required fields", zap.String("name", j.JobName))
			continue
		}

		company := j.BrandName
		if company == "" {
			company = j.BrandComName
		}

		p := model.Posting{
			ID:          j.EncryptJobID,
			Title:       j.JobName,
			CompanyName: company,
			City:        j.CityName,
			WorkYears:   j.JobExperience,
			Education:   j.JobDegree,
			Tags:        j.JobLabels,
			Recruiter:   j.BossName,
			CompanySize: j.CompanySize,
			Industry:    j.Industry,
			Description: j.JobDesc,
		}
		p.SalaryMin, p.SalaryMax = parseSalary(j.SalaryDesc)
		if t, err := time.Parse(time.RFC3339, j.UpdateTime); err == nil {
			p.UpdatedAt = t
		}

		if !b.qualityOK(p) {
			continue
		}
		postings = append(postings, p)
	}
	return postings
}

// qualityOK drops postings from tiny companies and postings that have not
// been touched recently enough to expect a recruiter response.
func (b *Boss) qualityOK(p model.Posting) bool {
	if p.CompanySize == "少于15人" {
		return false
	}
	if !p.UpdatedAt.IsZero() && b.now().Sub(p.UpdatedAt) > bossStaleAfter {
		return false
	}
	return true
}

type bossDeliverPayload struct {
	JobID    string `json:"jobId"`
	Greeting string `json:"greeting"`
	Source   int    `json:"source"` // 1 = search result
}

// Deliver submits one application. Response codes: 0 delivered, 1 already
// delivered, anything else is a rejection unless the message indicates an
// invalid session.
func (b *Boss) Deliver(ctx context.Context, p model.Posting, greeting string) (DeliveryResult, error) {
	payload := bossDeliverPayload{JobID: p.ID, Greeting: greeting, Source: 1}

	var env bossEnvelope
	reqURL := b.baseURL + "/wapi/zpgeek/job/start.json"
	if err := postJSON(ctx, b.client, reqURL, b.cookie, "boss deliver", payload, &env); err != nil {
		return DeliveryResult{}, err
	}

	switch env.Code {
	case 0:
		return DeliveryResult{Outcome: Delivered}, nil
	case 1:
		return DeliveryResult{Outcome: AlreadyDelivered}, nil
	}
	if sessionInvalid(env.Message) {
		return DeliveryResult{}, fmt.Errorf("boss deliver: %s: %w", env.Message, ErrSessionExpired)
	}
	return DeliveryResult{Outcome: Rejected, Reason: env.Message}, nil
}
