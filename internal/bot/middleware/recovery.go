package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// RecoverFromPanic гасит панику обработчика команды: один кривой
// апдейт не должен ронять весь игровой мир.
func RecoverFromPanic() {
	if r := recover(); r != nil {
		log.WithFields(log.Fields{
			"panic": fmt.Sprintf("%v", r),
			"stack": string(debug.Stack()),
		}).Error("Паника в обработчике команды, восстановлено")
	}
}
