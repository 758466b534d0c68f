package messages

import (
	"testing"
)

func TestSerializeDeserializeMessage(t *testing.T) {
	type args struct {
		clientID uint32
		msgType  MessageType
		payload  interface{}
	}
	tests := []struct {
		name    string
		args    args
		wantErr bool
	}{
		{
			name: "question to one player",
			args: args{
				clientID: 0,
				msgType:  MessageTypeServerQuestion,
				payload: &ServerQuestion{
					QuestionID: 42,
					Prompt:     "28 ÷ 7",
				},
			},
			wantErr: false,
		},
		{
			name: "snapshot broadcast",
			args: args{
				clientID: 0,
				msgType:  MessageTypeServerSnapshot,
				payload: &ServerSnapshot{
					Positions: map[uint32]int{1: 10, 2: 0},
					Names:     map[uint32]string{1: "ana", 2: "ben"},
				},
			},
			wantErr: false,
		},
		{
			name: "ping without payload",
			args: args{
				clientID: 3,
				msgType:  MessageTypePing,
				payload:  nil,
			},
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.args.clientID, tt.args.msgType, tt.args.payload)
			if err != nil {
				t.Fatalf("NewMessage() error = %v", err)
			}

			b, err := SerializeMessage(msg)
			if (err != nil) != tt.wantErr {
				t.Errorf("SerializeMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			got, err := DeserializeMessage(b)
			if (err != nil) != tt.wantErr {
				t.Errorf("DeserializeMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if got.ClientID != msg.ClientID || got.Type != msg.Type {
				t.Errorf("DeserializeMessage() = %v, want %v", got, msg)
			}
			if string(got.Payload) != string(msg.Payload) {
				t.Errorf("DeserializeMessage() payload = %s, want %s", got.Payload, msg.Payload)
			}
		})
	}
}

func TestDeserializeMessageGarbage(t *testing.T) {
	if _, err := DeserializeMessage([]byte("not a zstd frame")); err == nil {
		t.Error("DeserializeMessage() expected error for garbage input")
	}
}
