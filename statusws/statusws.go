// SPDX-License-Identifier: Apache-2.0
//
// Copyright (C) 2024 Renesas Electronics Corporation.
// Copyright (C) 2024 EPAM Systems, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package statusws broadcasts phase outcomes to connected monitors (a local dashboard, a
// test harness) over a websocket, so something outside the process can observe the
// workflow's progress without tailing logs.
package statusws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/renesas-rz/fsupdatehandler/aoserrors"
	"github.com/renesas-rz/fsupdatehandler/resultmapper"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// StatusMessage is one broadcast event: a workflow ID, the phase it came from, and the
// resulting Result.
type StatusMessage struct {
	WorkflowID string              `json:"workflowId"`
	Phase      string              `json:"phase"`
	Result     resultmapper.Result `json:"result"`
}

// Server accepts websocket connections and broadcasts StatusMessage events to every
// connected client.
type Server struct {
	upgrader websocket.Upgrader

	mutex   sync.Mutex
	clients map[string]*websocket.Conn
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates a status broadcast server.
func New() *Server {
	return &Server{
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		clients:  make(map[string]*websocket.Conn),
	}
}

// ServeHTTP upgrades the connection and registers it as a broadcast recipient until it
// disconnects.
func (server *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := server.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Error("Failed to upgrade status websocket connection")

		return
	}

	id := uuid.New().String()

	server.mutex.Lock()
	server.clients[id] = conn
	server.mutex.Unlock()

	log.WithField("client", id).Debug("Status client connected")

	go server.readUntilClosed(id, conn)
}

// Broadcast sends message to every connected client, dropping (and closing) any connection
// that errors on write.
func (server *Server) Broadcast(message StatusMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.WithError(err).Error("Failed to marshal status message")

		return
	}

	server.mutex.Lock()
	defer server.mutex.Unlock()

	for id, conn := range server.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.WithError(aoserrors.Wrap(err)).WithField("client", id).Warn("Dropping status client")

			conn.Close()
			delete(server.clients, id)
		}
	}
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

// readUntilClosed discards incoming frames (this is a broadcast-only protocol) until the
// client disconnects, then deregisters it.
func (server *Server) readUntilClosed(id string, conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	server.mutex.Lock()
	delete(server.clients, id)
	server.mutex.Unlock()

	conn.Close()

	log.WithField("client", id).Debug("Status client disconnected")
}
