package handler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-advisor/internal/constants"
	"resume-advisor/internal/processor"
	"resume-advisor/internal/storage"
	"resume-advisor/internal/storage/models"
	"resume-advisor/internal/types"
)

func TestReportFilename(t *testing.T) {
	assert.Equal(t, "resume_analysis_Software_Engineer.txt", ReportFilename("Software Engineer"))
	assert.Equal(t, "resume_analysis_UX_UI_Designer.txt", ReportFilename("UX/UI Designer"))
	assert.Equal(t, "resume_analysis_Data_Scientist.txt", ReportFilename("  Data Scientist "))
	assert.Equal(t, "resume_analysis_Data_Scientist_X-Evil:_1.txt", ReportFilename("Data Scientist\r\nX-Evil: 1"))
	assert.Equal(t, "resume_analysis_a__b_c.txt", ReportFilename("a;\x00b\"\nc"))
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{processor.ErrUnreadableInput, 422},
		{processor.NewUnreadableError("u", "empty"), 422},
		{fmt.Errorf("%w: 文件为空", processor.ErrInvalidUpload), 400},
		{storage.ErrSubmissionNotFound, 404},
		{processor.ErrAsyncUnavailable, 503},
		{processor.NewDatabaseError("u", "timeout"), 500},
		{errors.New("boom"), 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusForError(tt.err), tt.err.Error())
	}
}

func TestNewAnalysisResponse(t *testing.T) {
	result, err := processor.NewResumeAnalyzer().Analyze(context.Background(), "Jane Doe\njane@example.com\n\nSkills\nGo, Docker\n", "Software Engineer")
	require.NoError(t, err)

	resp := newAnalysisResponse(result, "Jane Doe\njane@example.com")
	assert.Equal(t, result.Score, resp.OverallScore)
	require.NotNil(t, resp.ReportScore)
	assert.Equal(t, result.Score, *resp.ReportScore)
	assert.NotEmpty(t, resp.Sections)
	assert.Equal(t, "Jane Doe\njane@example.com", resp.TextPreview)
	assert.NotNil(t, resp.Risks)
}

func TestNewSubmissionResponse(t *testing.T) {
	h := NewAnalysisHandler(nil, nil)

	pending := &models.AnalysisSubmission{
		SubmissionUUID:   "u-1",
		ProcessingStatus: constants.StatusPendingAnalysis,
		JobCategory:      "Software Engineer",
		ReportText:       "## QUICK SUMMARY (TL;DR)\n- x\n",
	}
	resp := h.newSubmissionResponse(pending)
	assert.Equal(t, constants.StatusPendingAnalysis, resp.Status)
	assert.Nil(t, resp.Sections)
	assert.Nil(t, resp.OverallScore)

	score := 64
	now := time.Now()
	components, err := models.ToJSON(types.ScoreComponents{RoleAlignment: 16, ImpactClarity: 16, ATSFriendly: 16, ProjectRelevance: 16})
	require.NoError(t, err)
	risks, err := models.ToJSON([]types.RiskFinding{{Type: "Skill Dumping", Severity: types.SeverityMedium}})
	require.NoError(t, err)

	done := &models.AnalysisSubmission{
		SubmissionUUID:      "u-2",
		ProcessingStatus:    constants.StatusCompleted,
		JobCategory:         "Software Engineer",
		AnalysisSource:      "local",
		OverallScore:        &score,
		ScoreComponentsJSON: components,
		RisksJSON:           risks,
		ReportText:          "## RESUME SCORE & BREAKDOWN\nOverall Score: 64/100\n",
		AnalyzedAt:          &now,
	}
	resp = h.newSubmissionResponse(done)
	require.NotNil(t, resp.OverallScore)
	assert.Equal(t, 64, *resp.OverallScore)
	require.NotNil(t, resp.ScoreComponents)
	assert.Equal(t, 64, resp.ScoreComponents.Total())
	require.Len(t, resp.Risks, 1)
	assert.Equal(t, "Skill Dumping", resp.Risks[0].Type)
	require.NotNil(t, resp.ReportScore)
	assert.Equal(t, 64, *resp.ReportScore)
}

type fakeStarter struct {
	started int
	failAt  int
	stops   []chan struct{}
}

func (f *fakeStarter) StartConsumer(_ string, _ int, _ storage.ConsumeHandler) (chan<- struct{}, error) {
	f.started++
	if f.failAt > 0 && f.started == f.failAt {
		return nil, errors.New("channel closed")
	}
	ch := make(chan struct{})
	f.stops = append(f.stops, ch)
	return ch, nil
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestStartAnalysisConsumers(t *testing.T) {
	h := NewAnalysisHandler(processor.NewAnalysisService(nil, nil, nil), nil)

	starter := &fakeStarter{}
	stop, err := h.StartAnalysisConsumers(starter, "resume.analysis", 4, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, starter.started)
	stop()
	for _, ch := range starter.stops {
		assert.True(t, isClosed(ch))
	}

	failing := &fakeStarter{failAt: 2}
	_, err = h.StartAnalysisConsumers(failing, "resume.analysis", 1, 3)
	require.Error(t, err)
	require.Len(t, failing.stops, 1)
	assert.True(t, isClosed(failing.stops[0]), "已启动的消费者应被停止")
}
