// Package socketio encodes and decodes Socket.IO v5 packets and the
// Engine.IO v4 frames that carry them.
//
// Only the framing is implemented here. Connection management lives in the
// socket package, which moves these packets over a websocket:
//
//	frame := socketio.EnginePacket{Type: socketio.EngineMessage, Data: event.Encode()}.Encode()
//	// frame == `42["search",{"query":"vader"}]`
package socketio
