package main

import (
	"context"
	"fmt"
	"time"
)

// 处理提取文本命令
func handleExtractCommand() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	text, metadata := readInput(ctx)

	fmt.Printf("\n===== 提取的文本 (总计 %d 字符) =====\n", len([]rune(text)))
	fmt.Println(truncate(text))

	fmt.Println("\n===== 元数据 =====")
	for k, v := range metadata {
		fmt.Printf("  %s: %v\n", k, v)
	}

	saveOutput(text)
}
