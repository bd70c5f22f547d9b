package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"PianoInstructor/logger"

	"github.com/gorilla/websocket"
)

// MessageType 消息类型
type MessageType string

const (
	// 客户端 -> 服务端
	MsgTypeAnswer MessageType = "answer" // 提交答案
	MsgTypeReplay MessageType = "replay" // 重播题目（听音模式）
	MsgTypeQuit   MessageType = "quit"   // 退出游戏
	MsgTypePing   MessageType = "ping"   // 心跳

	// 服务端 -> 客户端
	MsgTypePong     MessageType = "pong"      // 心跳响应
	MsgTypeReady    MessageType = "ready"     // 会话已创建
	MsgTypeNotePlay MessageType = "note_play" // 播放一个音符
	MsgTypeError    MessageType = "error"     // 错误消息
)

const (
	sendBufferSize = 256
	readLimit      = 4096
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	writeWait      = 10 * time.Second
)

// WSMessage WebSocket 消息结构
type WSMessage struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// AnswerData 答案数据
type AnswerData struct {
	Option string `json:"option"`
}

// ReadyData 会话信息
type ReadyData struct {
	SessionID  string `json:"sessionId"`
	Title      string `json:"title"`
	Mode       string `json:"mode"`
	Difficulty int    `json:"difficulty"`
	Player     string `json:"player"`
}

// NotePlayData 播放音符数据
type NotePlayData struct {
	Pitch     int     `json:"pitch"`
	Name      string  `json:"name"`
	Frequency float64 `json:"frequency"`
	Duration  float64 `json:"duration"`
}

// Client 一条游戏 WebSocket 连接
type Client struct {
	Conn *websocket.Conn
	Send chan []byte
	ID   string

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, id string) *Client {
	return &Client{
		Conn: conn,
		Send: make(chan []byte, sendBufferSize),
		ID:   id,
		done: make(chan struct{}),
	}
}

// Close 通知写循环发完剩余消息后关闭连接，可重复调用
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// SendMessage 发送消息，缓冲区满或连接已关闭时丢弃
func (c *Client) SendMessage(msgType MessageType, data interface{}) {
	msg := WSMessage{Type: msgType, Timestamp: time.Now().UnixMilli()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			logger.Error("编码消息失败", logger.String("type", string(msgType)), logger.ErrorField(err))
			return
		}
		msg.Data = raw
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.Send <- payload:
	default:
		logger.Warn("send buffer full, dropping message",
			logger.String("session", c.ID),
			logger.String("type", string(msgType)))
	}
}

// ReadPump 读取消息循环，连接断开或 ctx 取消时返回
func (c *Client) ReadPump(ctx context.Context, handler func(msg *WSMessage)) {
	c.Conn.SetReadLimit(readLimit)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error",
					logger.ErrorField(err),
					logger.String("session", c.ID))
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Warn("invalid message format",
				logger.ErrorField(err),
				logger.String("session", c.ID))
			c.SendMessage(MsgTypeError, map[string]string{"error": "invalid message format"})
			continue
		}

		// 处理心跳
		if msg.Type == MsgTypePing {
			c.Conn.SetReadDeadline(time.Now().Add(pongWait))
			c.SendMessage(MsgTypePong, nil)
			continue
		}

		handler(&msg)
	}
}

// WritePump 写入消息循环；Close 之后先发完队列中的消息再关闭连接
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			if err := c.write(message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			for {
				select {
				case message := <-c.Send:
					if err := c.write(message); err != nil {
						return
					}
				default:
					c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
					c.Conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}

// write 合并发送队列中的消息，一帧内以换行分隔
func (c *Client) write(message []byte) error {
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	w, err := c.Conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	w.Write(message)

	n := len(c.Send)
	for i := 0; i < n; i++ {
		w.Write([]byte{'\n'})
		w.Write(<-c.Send)
	}
	return w.Close()
}
