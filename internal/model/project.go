package model

import "time"

// Project 项目（多日活动）— 对应 projects
// 档期窗口 [StartDate, EndDate] 创建后不可变，所有日期校验以它为边界
type Project struct {
	ProjectID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"project_id"`
	Name      string    `gorm:"type:varchar(200);not null"                     json:"name"`
	StartDate time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate   time.Time `gorm:"type:date;not null"                             json:"end_date"`
	VersionedModel
}

func (Project) TableName() string { return "projects" }

// AllDates 返回档期窗口内的全部日期（升序，含两端）
func (p *Project) AllDates() []string {
	var dates []string
	for d := p.StartDate; !d.After(p.EndDate); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates
}

// ContainsDate 判断日期（"2006-01-02"）是否落在档期窗口内
func (p *Project) ContainsDate(date string) bool {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return false
	}
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}
