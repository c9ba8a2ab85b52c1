package platform

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/yunhdeng/job-bot/internal/model"
)

const liepinPageSize = 40

// Liepin targets 猎聘's search-for-pc API. Unlike Boss it searches via POST
// and requires a resume ID on every delivery.
type Liepin struct {
	baseURL  string
	cookie   string
	resumeID string
	client   *http.Client
	log      *zap.Logger
}

func NewLiepin(cookie, resumeID string, proxy ProxyFunc, log *zap.Logger) *Liepin {
	return &Liepin{
		baseURL:  "https://www.liepin.com",
		cookie:   cookie,
		resumeID: resumeID,
		client:   newHTTPClient(proxy),
		log:      log.Named("liepin"),
	}
}

func (l *Liepin) Name() string { return "liepin" }

type liepinSearchPayload struct {
	Data struct {
		MainSearchPcConditionForm struct {
			City        string `json:"city"`
			Dq          string `json:"dq"`
			Key         string `json:"key"`
			CurrentPage int    `json:"currentPage"`
			PageSize    int    `json:"pageSize"`
		} `json:"mainSearchPcConditionForm"`
	} `json:"data"`
}

type liepinSearchResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Data struct {
			JobCardList []liepinJob `json:"jobCardList"`
		} `json:"data"`
	} `json:"data"`
}

type liepinJob struct {
	JobID            string   `json:"jobId"`
	JobName          string   `json:"jobName"`
	CompanyName      string   `json:"companyName"`
	CityName         string   `json:"cityName"`
	RecruiterName    string   `json:"recruiterName"`
	CompanySize      string   `json:"companySize"`
	RequireWorkYears string   `json:"requireWorkYears"`
	RequireEduLevel  string   `json:"requireEduLevel"`
	Labels           []string `json:"labels"`
	Industry         string   `json:"industryName"`
	AdvertiseFlag    bool     `json:"advertiseFlag"`
	Salary           struct {
		MinSalary int `json:"minSalary"`
		MaxSalary int `json:"maxSalary"`
	} `json:"salary"`
}

func (l *Liepin) Search(ctx context.Context, keyword, city string, page int) ([]model.Posting, error) {
	var payload liepinSearchPayload
	form := &payload.Data.MainSearchPcConditionForm
	form.City = city
	form.Dq = city
	form.Key = keyword
	form.CurrentPage = page
	form.PageSize = liepinPageSize

	var resp liepinSearchResponse
	reqURL := l.baseURL + "/api/com.liepin.searchfront.search-for-pc"
	if err := postJSON(ctx, l.client, reqURL, l.cookie, "liepin search", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, &ParseError{Op: "liepin search", Err: fmt.Errorf("code %d: %s", resp.Code, resp.Message)}
	}

	postings := make([]model.Posting, 0, len(resp.Data.Data.JobCardList))
	for _, j := range resp.Data.Data.JobCardList {
		if j.AdvertiseFlag { // sponsored slots are not real search results
			continue
		}
		if j.JobID == "" || j.JobName == "" {
			continue
		}
		p := model.Posting{
			ID:          j.JobID,
			Title:       j.JobName,
			CompanyName: j.CompanyName,
			City:        j.CityName,
			SalaryMin:   j.Salary.MinSalary,
			SalaryMax:   j.Salary.MaxSalary,
			WorkYears:   j.RequireWorkYears,
			Education:   j.RequireEduLevel,
			Tags:        j.Labels,
			Recruiter:   j.RecruiterName,
			CompanySize: j.CompanySize,
			Industry:    j.Industry,
		}
		if p.SalaryMin > p.SalaryMax {
			p.SalaryMin, p.SalaryMax = 0, 0
		}
		postings = append(postings, p)
	}
	return postings, nil
}

type liepinDeliverPayload struct {
	Data struct {
		JobID           string `json:"jobId"`
		ResumeID        string `json:"resumeId"`
		GreetingContent string `json:"greetingContent"`
	} `json:"data"`
}

type liepinDeliverResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (l *Liepin) Deliver(ctx context.Context, p model.Posting, greeting string) (DeliveryResult, error) {
	var payload liepinDeliverPayload
	payload.Data.JobID = p.ID
	payload.Data.ResumeID = l.resumeID
	payload.Data.GreetingContent = greeting

	var resp liepinDeliverResponse
	reqURL := l.baseURL + "/api/com.liepin.delivery.client.delivery.submitDelivery"
	if err := postJSON(ctx, l.client, reqURL, l.cookie, "liepin deliver", payload, &resp); err != nil {
		return DeliveryResult{}, err
	}

	switch resp.Code {
	case 0:
		return DeliveryResult{Outcome: Delivered}, nil
	case 1:
		return DeliveryResult{Outcome: AlreadyDelivered}, nil
	}
	if sessionInvalid(resp.Message) {
		return DeliveryResult{}, fmt.Errorf("liepin deliver: %s: %w", resp.Message, ErrSessionExpired)
	}
	return DeliveryResult{Outcome: Rejected, Reason: resp.Message}, nil
}

var _ Adapter = (*Liepin)(nil)
