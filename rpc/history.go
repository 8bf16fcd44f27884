package rpc

import (
	"context"

	"github.com/nicebartender/bci-bridge/db"
	"github.com/nicebartender/bci-bridge/ws"
)

func (r *Router) handleHistory(client *ws.Client, req ws.RPCRequest) {
	if r.DB == nil {
		client.SendJSON(ws.NewResponse(req.ID, map[string]interface{}{
			"dispatches": []db.Dispatch{},
		}))
		return
	}

	dispatches, err := r.DB.RecentDispatches(context.Background(), jsonInt(req.Params["limit"]))
	if err != nil {
		client.SendJSON(ws.NewErrorResponse(req.ID, ws.CodeDBError, err.Error()))
		return
	}
	if dispatches == nil {
		dispatches = []db.Dispatch{}
	}

	client.SendJSON(ws.NewResponse(req.ID, map[string]interface{}{
		"dispatches": dispatches,
	}))
}
