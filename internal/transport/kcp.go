// Package transport - KCP-сессии между клиентом и сервером чанков.
// Поверх надёжного потока KCP передаются кадры protocol.WriteFrame.
package transport

import (
	"github.com/xtaci/kcp-go/v5"
)

// configureSession настраивает KCP для потоковой передачи чанков
func configureSession(conn *kcp.UDPSession) {
	conn.SetStreamMode(true)
	conn.SetWriteDelay(false)
	conn.SetNoDelay(1, 20, 2, 1) // Агрессивные настройки для игр
	conn.SetWindowSize(512, 512) // Чанки крупные, окно побольше
	conn.SetMtu(1400)            // Стандартный MTU для интернета
}
