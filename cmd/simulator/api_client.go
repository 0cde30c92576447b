package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gorillaWS "github.com/gorilla/websocket"

	"github.com/dom/squad-roster/internal/api/handlers"
	"github.com/dom/squad-roster/internal/domain"
	"github.com/dom/squad-roster/internal/service"
	"github.com/dom/squad-roster/internal/websocket"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Characters lists the catalog, filtered by query (may be empty).
func (c *APIClient) Characters(query url.Values) ([]handlers.CharacterResponse, error) {
	path := "/characters"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var result handlers.CharactersResponse
	if err := c.do(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Characters, nil
}

// State returns the full roster state
func (c *APIClient) State() (*handlers.StateResponse, error) {
	var result handlers.StateResponse
	if err := c.do(http.MethodGet, "/state", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) Toggle(setID, characterID string) (*handlers.ToggleResponse, error) {
	var result handlers.ToggleResponse
	err := c.do(http.MethodPost, "/teamsets/"+setID+"/toggle", handlers.ToggleRequest{CharacterID: characterID}, &result)
	return &result, err
}

func (c *APIClient) Move(setID string, req handlers.MoveRequest) (*handlers.MoveResponse, error) {
	var result handlers.MoveResponse
	err := c.do(http.MethodPost, "/teamsets/"+setID+"/move", req, &result)
	return &result, err
}

// Reset empties one team set, or everything when setID is empty
func (c *APIClient) Reset(setID string) (*service.Result, error) {
	path := "/reset"
	if setID != "" {
		path = "/teamsets/" + setID + "/reset"
	}
	var result service.Result
	err := c.do(http.MethodPost, path, nil, &result)
	return &result, err
}

func (c *APIClient) ShareTeamSet(setID string) (*service.ShareResult, error) {
	var result service.ShareResult
	err := c.do(http.MethodGet, "/teamsets/"+setID+"/sharecode", nil, &result)
	return &result, err
}

func (c *APIClient) Import(code, name string) (*service.ImportResult, error) {
	var result service.ImportResult
	err := c.do(http.MethodPost, "/library/import", handlers.ImportRequest{Code: code, Name: name}, &result)
	return &result, err
}

func (c *APIClient) LoadSaved(name, setID string) (*service.Result, error) {
	var result service.Result
	err := c.do(http.MethodPost, "/library/"+url.PathEscape(name)+"/load", handlers.LoadSetRequest{TeamSetID: setID}, &result)
	return &result, err
}

// Export downloads the rendered image of a team set
func (c *APIClient) Export(setID string) ([]byte, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/teamsets/" + setID + "/export.png")
	if err != nil {
		return nil, fmt.Errorf("export request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("export failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}
	return io.ReadAll(resp.Body)
}

// Drag replays one drag gesture over the websocket. A nil dest drops the
// item outside every slot; cancel abandons the drag before release.
func (c *APIClient) Drag(setID string, src domain.SlotRef, dest *domain.SlotRef, overlap float64, cancel bool) (*websocket.DragResultPayload, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws"
	conn, _, err := gorillaWS.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	defer conn.Close()

	if setID == "active" {
		setID = ""
	}
	send := func(t websocket.MessageType, payload interface{}) error {
		msg, err := websocket.NewMessage(t, payload)
		if err != nil {
			return err
		}
		return conn.WriteJSON(msg)
	}

	if err := send(websocket.MessageTypeDragStart, websocket.DragStartPayload{TeamSetID: setID, Source: src}); err != nil {
		return nil, err
	}
	if err := send(websocket.MessageTypeDragOver, websocket.DragOverPayload{Dest: dest, Overlap: overlap}); err != nil {
		return nil, err
	}
	if cancel {
		return nil, send(websocket.MessageTypeDragCancel, nil)
	}
	if err := send(websocket.MessageTypeDragEnd, websocket.DragEndPayload{Dest: dest, Overlap: overlap}); err != nil {
		return nil, err
	}
	if dest == nil {
		return nil, nil
	}

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		var msg websocket.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return nil, fmt.Errorf("waiting for drag result: %w", err)
		}
		switch msg.Type {
		case websocket.MessageTypeDragResult:
			var result websocket.DragResultPayload
			if err := json.Unmarshal(msg.Payload, &result); err != nil {
				return nil, err
			}
			return &result, nil
		case websocket.MessageTypeError:
			var payload websocket.ErrorPayload
			json.Unmarshal(msg.Payload, &payload)
			return nil, fmt.Errorf("drag rejected (%s): %s", payload.Code, payload.Message)
		case websocket.MessageTypeWarning:
			var payload websocket.WarningPayload
			json.Unmarshal(msg.Payload, &payload)
			fmt.Printf("Warning: %s\n", payload.Message)
		}
	}
}

// HTTP helpers

func (c *APIClient) do(method, path string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s failed (status %d): %s", method, path, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
