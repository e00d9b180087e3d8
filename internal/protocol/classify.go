// Package protocol classifies raw inbound wire units from a live room
// stream. One websocket text message is exactly one unit.
package protocol

import (
	"encoding/base64"
	"fmt"
	"strings"

	"streamfront/internal/domain"
)

const (
	userEchoPrefix   = "[USER:"
	audioChunkPrefix = "[AUDIO:"
	streamEndMarker  = "[EOF]"
	frameSuffix      = "]"
)

// Classify resolves one raw unit into exactly one frame, evaluating patterns
// in fixed priority order with first match winning:
//
//  1. [USER:<text>]    user echo
//  2. [AUDIO:<base64>] one complete speech-audio fragment
//  3. [EOF]            end of the current assistant turn
//  4. anything else    one assistant-reply text chunk
//
// The returned error is non-nil only for audio frames whose payload is not
// valid base64; the frame kind is still FrameAudioChunk in that case so the
// caller can account for the malformed fragment.
func Classify(raw string) (domain.Frame, error) {
	if inner, ok := enclosed(raw, userEchoPrefix); ok {
		return domain.Frame{Kind: domain.FrameUserEcho, Text: inner}, nil
	}
	if inner, ok := enclosed(raw, audioChunkPrefix); ok {
		payload, err := base64.StdEncoding.DecodeString(inner)
		if err != nil {
			return domain.Frame{Kind: domain.FrameAudioChunk}, fmt.Errorf("undecodable audio payload: %w", err)
		}
		return domain.Frame{Kind: domain.FrameAudioChunk, Payload: payload}, nil
	}
	if raw == streamEndMarker {
		return domain.Frame{Kind: domain.FrameStreamEnd}, nil
	}
	return domain.Frame{Kind: domain.FrameTextToken, Text: raw}, nil
}

func enclosed(raw, prefix string) (string, bool) {
	if !strings.HasPrefix(raw, prefix) || !strings.HasSuffix(raw, frameSuffix) {
		return "", false
	}
	return raw[len(prefix) : len(raw)-len(frameSuffix)], true
}
