package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"resume-advisor/internal/config"
	"resume-advisor/internal/extraction"
	"resume-advisor/internal/llm"
	"resume-advisor/internal/logger"
	"resume-advisor/internal/parser"
	"resume-advisor/internal/processor"
	"resume-advisor/internal/report"
)

// 处理结构化记录命令
func handleRecordCommand() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	text, _ := readInput(ctx)
	record := extraction.Build(text)

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		fmt.Printf("序列化结构化记录失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
	saveOutput(string(data))
}

// 处理完整分析命令
func handleAnalyzeCommand() {
	cfg := loadConfig()
	timeout := 30 * time.Second
	if *useLLM {
		timeout += config.GetDuration(cfg.LLM.Timeout, 60*time.Second)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	text, _ := readInput(ctx)

	opts := []processor.AnalyzerOption{processor.WithDefaultJobCategory(cfg.Analysis.DefaultJobCategory)}
	if *useLLM {
		if !cfg.LLM.Enabled() {
			fmt.Println("警告: 未配置外部模型凭证, 使用本地规则分析")
		} else {
			chatModel, err := llm.NewChatModel(ctx, cfg.LLM)
			if err != nil {
				fmt.Printf("创建外部模型失败: %v\n", err)
				os.Exit(1)
			}
			gen := parser.NewLLMReportGenerator(chatModel, logger.StdLogger("[ReportGenerator] "),
				parser.WithModelOptions(llm.DefaultOptions(cfg.LLM)...))
			opts = append(opts,
				processor.WithExternalGenerator(gen),
				processor.WithExternalTimeout(config.GetDuration(cfg.LLM.Timeout, 60*time.Second)))
		}
	}

	startTime := time.Now()
	result, err := processor.NewResumeAnalyzer(opts...).Analyze(ctx, text, *jobCategory)
	if err != nil {
		fmt.Printf("分析失败: %v\n", err)
		os.Exit(1)
	}

	if *jsonOutput {
		payload := struct {
			Result   interface{}     `json:"result"`
			Sections report.Sections `json:"sections"`
		}{result, report.Parse(result.Report)}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			fmt.Printf("序列化分析结果失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		saveOutput(string(data))
		return
	}

	fmt.Printf("岗位: %s | 来源: %s | 总分: %d/100 | 耗时: %v\n",
		result.JobCategory, result.Source, result.Score, time.Since(startTime))
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println(result.Report)
	saveOutput(result.Report)
}
