package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/yunhdeng/job-bot/internal/model"
)

const zhilianPageSize = 30

// Zhilian targets 智联招聘's sou API. The platform signals success with
// code 200 rather than 0 and delivers by resume number without a greeting.
type Zhilian struct {
	baseURL  string
	cookie   string
	resumeID string
	client   *http.Client
	log      *zap.Logger
}

func NewZhilian(cookie, resumeID string, proxy ProxyFunc, log *zap.Logger) *Zhilian {
	return &Zhilian{
		baseURL:  "https://fe-api.zhaopin.com",
		cookie:   cookie,
		resumeID: resumeID,
		client:   newHTTPClient(proxy),
		log:      log.Named("zhilian"),
	}
}

func (z *Zhilian) Name() string { return "zhilian" }

type zhilianSearchResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Results []zhilianJob `json:"results"`
	} `json:"data"`
}

type zhilianJob struct {
	Number        string `json:"number"`
	JobName       string `json:"jobName"`
	Salary        string `json:"salary"`
	RecruiterName string `json:"recruiterName"`
	Company       struct {
		Name string `json:"name"`
		Size struct {
			Name string `json:"name"`
		} `json:"size"`
	} `json:"company"`
	City struct {
		Display string `json:"display"`
	} `json:"city"`
	WorkingExp struct {
		Name string `json:"name"`
	} `json:"workingExp"`
	EduLevel struct {
		Name string `json:"name"`
	} `json:"eduLevel"`
	Welfare []struct {
		Name string `json:"name"`
	} `json:"welfare"`
}

func (z *Zhilian) Search(ctx context.Context, keyword, city string, page int) ([]model.Posting, error) {
	params := url.Values{}
	params.Set("kw", keyword)
	params.Set("cityId", city)
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(zhilianPageSize))

	var resp zhilianSearchResponse
	reqURL := z.baseURL + "/c/i/sou?" + params.Encode()
	if err := getJSON(ctx, z.client, reqURL, z.cookie, "zhilian search", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 200 {
		return nil, &ParseError{Op: "zhilian search", Err: fmt.Errorf("code %d: %s", resp.Code, resp.Message)}
	}

	postings := make([]model.Posting, 0, len(resp.Data.Results))
	for _, j := range resp.Data.Results {
		if j.Number == "" || j.JobName == "" {
			continue
		}
		p := model.Posting{
			ID:          j.Number,
			Title:       j.JobName,
			CompanyName: j.Company.Name,
			City:        j.City.Display,
			WorkYears:   j.WorkingExp.Name,
			Education:   j.EduLevel.Name,
			Recruiter:   j.RecruiterName,
			CompanySize: j.Company.Size.Name,
		}
		p.SalaryMin, p.SalaryMax = parseSalary(j.Salary)
		for _, w := range j.Welfare {
			p.Tags = append(p.Tags, w.Name)
		}
		postings = append(postings, p)
	}
	return postings, nil
}

type zhilianDeliverPayload struct {
	JobNumber    string `json:"jobNumber"`
	ResumeNumber string `json:"resumeNumber"`
}

type zhilianDeliverResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (z *Zhilian) Deliver(ctx context.Context, p model.Posting, _ string) (DeliveryResult, error) {
	payload := zhilianDeliverPayload{JobNumber: p.ID, ResumeNumber: z.resumeID}

	var resp zhilianDeliverResponse
	reqURL := z.baseURL + "/c/i/resume/deliver"
	if err := postJSON(ctx, z.client, reqURL, z.cookie, "zhilian deliver", payload, &resp); err != nil {
		return DeliveryResult{}, err
	}

	switch resp.Code {
	case 200:
		return DeliveryResult{Outcome: Delivered}, nil
	case 201:
		return DeliveryResult{Outcome: AlreadyDelivered}, nil
	}
	return DeliveryResult{Outcome: Rejected, Reason: resp.Message}, nil
}

var _ Adapter = (*Zhilian)(nil)
var _ Adapter = (*Boss)(nil)
