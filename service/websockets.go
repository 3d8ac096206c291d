package service

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{} // use default options

// webSocket reads Ops, does them, and writes them back with their
// results.
//
// The connection's attributes (from the upgrade request) apply to
// every Op that doesn't bring its own.
func (s *Service) webSocket(w http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Info("upgrade error", zap.Error(err))
		return
	}
	defer c.Close()

	ctx := r.Context()

	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.Logger.Info("read error", zap.Error(err))
			}
			return
		}

		var op Op
		if err := json.Unmarshal(message, &op); err != nil {
			op.Err = fmt.Sprintf("can't parse: %v", err)
		} else {
			// Errors are conveyed in the Op.
			op.Do(ctx, s)
		}

		js, err := json.Marshal(&op)
		if err != nil {
			s.Logger.Warn("marshal error", zap.Error(err))
			continue
		}
		if err = c.WriteMessage(mt, js); err != nil {
			s.Logger.Info("write error", zap.Error(err))
			return
		}
	}
}
