package logger

import (
	"log/slog"
	"os"
)

var log *slog.Logger

func Init() {
	log = slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func get() *slog.Logger {
	if log == nil {
		Init()
	}
	return log
}

func Info(event string, fields map[string]interface{}) {
	get().Info(event, args(fields)...)
}

func InfoWithUser(userID string, event string, fields map[string]interface{}) {
	get().Info(event, append([]any{"user_id", userID}, args(fields)...)...)
}

func Warn(event string, fields map[string]interface{}) {
	get().Warn(event, args(fields)...)
}

func Error(event string, err error, fields map[string]interface{}) {
	attrs := args(fields)
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	get().Error(event, attrs...)
}

func args(fields map[string]interface{}) []any {
	out := make([]any, 0, len(fields)*2)
	for key, value := range fields {
		out = append(out, key, value)
	}
	return out
}
