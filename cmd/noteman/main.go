package main

import (
	"os"

	"github.com/hitoshi/noteman/internal/app"
)

func main() {
	// エラーメッセージの表示はapp.Run内で完結しているため、
	// ここではexit codeの制御のみを行う。
	if err := app.Run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
