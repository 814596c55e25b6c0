package logger

import (
	"time"

	"go.uber.org/zap"
)

func String(key, val string) Field                 { return zap.String(key, val) }
func Strings(key string, val []string) Field       { return zap.Strings(key, val) }
func Int(key string, val int) Field                { return zap.Int(key, val) }
func Int64(key string, val int64) Field            { return zap.Int64(key, val) }
func Bool(key string, val bool) Field              { return zap.Bool(key, val) }
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }
func Any(key string, val any) Field                { return zap.Any(key, val) }

// Error creates an error field with the key "error".
func Error(err error) Field {
	return zap.Error(err)
}

// Domain field helpers keep key names consistent between packages.

// ExternalID tags an entry with the remote content identifier.
func ExternalID(id string) Field { return zap.String("external_id", id) }

// Model tags an entry with a model name.
func Model(name string) Field { return zap.String("model", name) }

// WebhookID tags an entry with a stored webhook record ID.
func WebhookID(id int64) Field { return zap.Int64("webhook_id", id) }

// URL tags an entry with a remote URL.
func URL(u string) Field { return zap.String("url", u) }
