package telephony

import (
	"fmt"
	"net/http"
	"net/url"

	"receptionist-platform/internal/conversations"
	"receptionist-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// InboundCallHandler receives the Twilio voice webhook, records the
// conversation, and answers with the call-control document that bridges the
// call's audio to the voice agent.
//
// Availability rule: the telephony leg always gets a valid TwiML document.
// Store failures are logged and swallowed; only a failure to build the stream
// document itself downgrades the call to the spoken fallback.

type InboundCallHandler struct {
	Conversations *conversations.Service

	// Agent is the configured voice-agent endpoint the stream connects to.
	Agent AgentEndpoint

	// Dedup short-circuits provider webhook retries. Optional; the store's
	// insert-if-absent on the call id is the authoritative guard.
	Dedup Deduper
}

// AgentEndpoint describes the voice-agent stream target.
type AgentEndpoint struct {
	// StreamURL is the wss:// base URL of the conversational session.
	StreamURL string
	// AgentID selects the agent persona, passed as a query parameter.
	AgentID string
	// APIKey is passed as an authorization connection parameter.
	APIKey string
}

const (
	fallbackVoice   = "Google.en-GB-Standard-A"
	fallbackMessage = "We apologize, but we are experiencing technical difficulties. Please try again later."

	twimlContentType = "text/xml"
)

func (h InboundCallHandler) HandleInboundCall(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseTwilioInboundCall(c.Request)
	if err != nil {
		// Even an unparseable webhook gets the fallback document rather than
		// an error status; the phone call must not hear a dead line.
		log.Warn("twilio webhook parse failed", "err", err)
		h.respondFallback(c)
		return
	}

	ctx := c.Request.Context()
	conversationID := ""

	if h.Dedup != nil && form.CallSid != "" {
		if existingID, fresh, derr := h.Dedup.Claim(ctx, form.CallSid); derr != nil {
			log.Warn("call dedup claim failed", "call_sid", form.CallSid, "err", derr)
		} else if !fresh && existingID != "" {
			conversationID = existingID
			log.Info("duplicate call webhook", "call_sid", form.CallSid, "conversation_id", existingID)
		}
	}

	if conversationID == "" {
		conv, cerr := h.Conversations.StartCall(ctx, conversations.StartCallInput{
			CustomerPhone:  form.From,
			ProviderCallID: form.CallSid,
		})
		if cerr != nil {
			// Graceful degradation: the call proceeds even if logging fails.
			log.Error("conversation create failed", "call_sid", form.CallSid, "err", cerr)
		} else {
			conversationID = conv.ID
			log.Info("inbound call recorded",
				"conversation_id", conv.ID, "call_sid", form.CallSid, "from", form.From)
			if h.Dedup != nil && form.CallSid != "" {
				if derr := h.Dedup.Record(ctx, form.CallSid, conv.ID); derr != nil {
					log.Warn("call dedup record failed", "call_sid", form.CallSid, "err", derr)
				}
			}
		}
	}

	twiml, err := RenderAgentStream(h.Agent.streamURL(), h.Agent.parameters())
	if err != nil {
		log.Error("stream twiml render failed", "call_sid", form.CallSid, "err", err)
		h.respondFallback(c)
		return
	}

	c.Header("Content-Type", twimlContentType)
	c.String(http.StatusOK, twiml)
}

func (h InboundCallHandler) respondFallback(c *gin.Context) {
	twiml, err := RenderSay(fallbackVoice, fallbackMessage)
	if err != nil {
		// Cannot happen with a constant message; keep the leg alive anyway.
		twiml = xmlHeaderFallback
	}
	c.Header("Content-Type", twimlContentType)
	c.String(http.StatusOK, twiml)
}

const xmlHeaderFallback = `<?xml version="1.0" encoding="UTF-8"?><Response><Hangup></Hangup></Response>`

func (e AgentEndpoint) streamURL() string {
	if e.StreamURL == "" {
		return ""
	}
	q := url.Values{}
	q.Set("agent_id", e.AgentID)
	return fmt.Sprintf("%s?%s", e.StreamURL, q.Encode())
}

func (e AgentEndpoint) parameters() []StreamParameter {
	return []StreamParameter{
		{Name: "authorization", Value: "Bearer " + e.APIKey},
	}
}
