package api

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/ssio-project/fiware-gateway/internal/fiware"
)

// forwardIoTAgent relays one provisioning request to the IoT Agent's
// north port.
func (s *Server) forwardIoTAgent(w http.ResponseWriter, r *http.Request, upstreamPath string) {
	var body []byte
	if fiware.BodyVerb(r.Method) {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			writeBadRequest(w, "reading request body")
			return
		}
	}

	status, respBody, err := s.iot.Forward(r.Context(), r.Method, upstreamPath, body, r.URL.Query())
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	s.writeProxied(w, status, respBody)
}

// Service group provisioning. The agent addresses groups by the apikey and
// resource query parameters rather than a path segment.

func (s *Server) handleCreateServiceGroup(w http.ResponseWriter, r *http.Request) {
	s.forwardIoTAgent(w, r, "/iot/services")
}

func (s *Server) handleListServiceGroups(w http.ResponseWriter, r *http.Request) {
	s.forwardIoTAgent(w, r, "/iot/services")
}

func (s *Server) handleDeleteServiceGroup(w http.ResponseWriter, r *http.Request) {
	s.forwardIoTAgent(w, r, "/iot/services")
}

// Device provisioning.

func (s *Server) handleRegisterDevices(w http.ResponseWriter, r *http.Request) {
	s.forwardIoTAgent(w, r, "/iot/devices")
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	s.forwardIoTAgent(w, r, "/iot/devices")
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	s.forwardIoTAgent(w, r, "/iot/devices/"+url.PathEscape(chi.URLParam(r, "deviceId")))
}

func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	s.forwardIoTAgent(w, r, "/iot/devices/"+url.PathEscape(chi.URLParam(r, "deviceId")))
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	s.forwardIoTAgent(w, r, "/iot/devices/"+url.PathEscape(chi.URLParam(r, "deviceId")))
}

// Device measurements (south port).

// deviceDataRequest is the measurement payload a device posts to the
// gateway. AccessToken is optional: only needed when the south port sits
// behind the PEP proxy.
type deviceDataRequest struct {
	APIKey      string `json:"apiKey"`
	DeviceID    string `json:"deviceId"`
	Data        string `json:"data"`
	AccessToken string `json:"accessToken"`
}

func (s *Server) handleDeviceDataUltralight(w http.ResponseWriter, r *http.Request) {
	s.handleDeviceData(w, r, s.iot.SendUltralight)
}

func (s *Server) handleDeviceDataJSON(w http.ResponseWriter, r *http.Request) {
	s.handleDeviceData(w, r, s.iot.SendJSON)
}

func (s *Server) handleDeviceData(w http.ResponseWriter, r *http.Request,
	send func(ctx context.Context, apiKey, deviceID, payload, accessToken string) error,
) {
	var req deviceDataRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.APIKey == "" || req.DeviceID == "" || req.Data == "" {
		writeBadRequest(w, "apiKey, deviceId and data are required")
		return
	}

	if err := send(r.Context(), req.APIKey, req.DeviceID, req.Data, req.AccessToken); err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "measurement accepted"})
}

// handleDeviceDataConfig reports how the south port is reachable, for
// device installers.
func (s *Server) handleDeviceDataConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"southPortUrl":  s.iot.SouthPortURL(),
		"mqttIngestion": s.iot.MQTTEnabled(),
	})
}
