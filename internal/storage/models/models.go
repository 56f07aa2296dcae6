package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// AnalysisSubmission 异步简历分析提交表
type AnalysisSubmission struct {
	SubmissionUUID      string         `gorm:"type:char(36);primaryKey"`
	SubmissionTimestamp time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_as_submission_timestamp"`
	JobCategory         string         `gorm:"type:varchar(100);not null;index:idx_as_job_category"`
	OriginalFilename    string         `gorm:"type:varchar(255)"`
	ContentType         string         `gorm:"type:varchar(255)"`
	OriginalFilePathOSS string         `gorm:"type:varchar(1024)"`
	RawFileMD5          string         `gorm:"type:char(32);index:idx_as_raw_file_md5"`
	RawTextSHA256       string         `gorm:"type:char(64)"`
	ProcessingStatus    string         `gorm:"type:varchar(50);default:'PENDING_ANALYSIS';index:idx_as_processing_status"`
	AnalysisSource      string         `gorm:"type:varchar(20)"`
	OverallScore        *int           `gorm:"type:int"`
	ScoreComponentsJSON datatypes.JSON `gorm:"type:json"`
	RisksJSON           datatypes.JSON `gorm:"type:json"`
	ReportText          string         `gorm:"type:mediumtext"`
	ReportPathOSS       string         `gorm:"type:varchar(1024)"`
	TextPreview         string         `gorm:"type:text"`
	ErrorMessage        string         `gorm:"type:text"`
	AnalyzerVersion     string         `gorm:"type:varchar(50)"`
	AnalyzedAt          *time.Time     `gorm:"type:datetime(6)"`
	CreatedAt           time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt           time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (AnalysisSubmission) TableName() string {
	return "analysis_submissions"
}

// ToJSON 序列化为 datatypes.JSON, nil 输入得到 JSON null
func ToJSON(v interface{}) (datatypes.JSON, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}
