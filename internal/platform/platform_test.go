package platform

import "github.com/yunhdeng/job-bot/internal/model"

func testPosting() model.Posting {
	return model.Posting{
		ID:          "j1",
		Title:       "Go工程师",
		CompanyName: "Acme",
		City:        "上海",
		SalaryMin:   15,
		SalaryMax:   25,
	}
}
