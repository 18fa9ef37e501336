package logger

import (
	"go.uber.org/zap"
)

var base *zap.Logger = zap.NewNop()

// Init 開発環境ではカラー付きのコンソール出力、本番ではJSON出力にする
func Init(isDev bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if isDev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	base = l
	return nil
}

func L() *zap.Logger {
	return base
}

func Sync() {
	_ = base.Sync()
}
