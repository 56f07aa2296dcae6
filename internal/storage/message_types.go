package storage

import "time"

// AnalysisTaskMessage 异步分析任务消息, 由发件箱写入、消费者处理
type AnalysisTaskMessage struct {
	SubmissionUUID      string    `json:"submission_uuid"`
	SubmissionTimestamp time.Time `json:"submission_timestamp"`
	JobCategory         string    `json:"job_category"`
	OriginalFilename    string    `json:"original_filename"`
	ContentType         string    `json:"content_type,omitempty"`
	OriginalFilePathOSS string    `json:"original_file_path_oss"`
	RawFileMD5          string    `json:"raw_file_md5,omitempty"` // 失败时用于撤销去重登记
}
