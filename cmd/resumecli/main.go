package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"resume-advisor/internal/config"
	"resume-advisor/internal/logger"
	"resume-advisor/internal/parser"
)

// 命令行参数定义
var (
	inputFile   = pflag.StringP("file", "f", "", "简历文件路径, 支持 pdf/docx/html/txt (必填)")
	jobCategory = pflag.StringP("job", "j", "", "目标岗位类别, 为空使用配置中的默认值")
	configPath  = pflag.StringP("config", "c", "", "配置文件路径")
	command     = pflag.String("cmd", "analyze", "执行的命令: extract=仅提取文本, record=结构化记录, analyze=完整分析")
	useLLM      = pflag.Bool("llm", false, "配置了外部模型时使用外部生成报告")
	maxLen      = pflag.Int("maxlen", 1000, "显示的文本最大长度，设为-1显示全部")
	outputFile  = pflag.StringP("output", "o", "", "保存结果到文件")
	jsonOutput  = pflag.Bool("json", false, "以JSON格式输出")
)

func main() {
	pflag.Parse()

	if err := logger.Init(logger.Config{Level: "warn", Format: "pretty"}); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
	}

	switch *command {
	case "extract":
		handleExtractCommand()
	case "record":
		handleRecordCommand()
	case "analyze":
		handleAnalyzeCommand()
	default:
		fmt.Printf("错误: 未知命令 '%s'。支持的命令: extract, record, analyze\n", *command)
		pflag.Usage()
		os.Exit(1)
	}
}

// readInput 读取文件并提取文本
func readInput(ctx context.Context) (string, map[string]interface{}) {
	if *inputFile == "" {
		fmt.Println("错误: 必须提供简历文件路径。使用 -f 或 --file 参数。")
		pflag.Usage()
		os.Exit(1)
	}

	absPath, err := filepath.Abs(*inputFile)
	if err != nil {
		fmt.Printf("无法获取文件的绝对路径: %v\n", err)
		os.Exit(1)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		fmt.Printf("无法读取文件 %s: %v\n", absPath, err)
		os.Exit(1)
	}

	dispatcher, err := parser.NewDispatcher(ctx)
	if err != nil {
		fmt.Printf("创建文档解析器失败: %v\n", err)
		os.Exit(1)
	}

	startTime := time.Now()
	text, meta, err := dispatcher.Extract(ctx, data, filepath.Base(absPath), "")
	if err != nil {
		fmt.Printf("提取文本失败: %v\n", err)
		os.Exit(1)
	}
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["elapsed"] = time.Since(startTime).String()
	return text, meta
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func truncate(text string) string {
	runes := []rune(text)
	if *maxLen >= 0 && len(runes) > *maxLen {
		return string(runes[:*maxLen]) + "...(已截断，使用 --maxlen 参数显示更多)"
	}
	return text
}

func saveOutput(content string) {
	if *outputFile == "" {
		return
	}
	if err := os.WriteFile(*outputFile, []byte(content), 0644); err != nil {
		fmt.Printf("保存到文件失败: %v\n", err)
		return
	}
	fmt.Printf("结果已保存到: %s\n", *outputFile)
}
