package agent

import "github.com/cloudwego/eino/schema"

// Stream is a finite, non-restartable sequence of reply fragments. Recv
// returns fragments in arrival order and io.EOF once the upstream model has
// finished; any other error is a transport failure and fragments already
// delivered remain valid partial output.
type Stream interface {
	Recv() (string, error)
	Close()
}

// messageStream adapts an eino stream reader to Stream, dropping empty
// frames (role-only deltas) so every yielded fragment carries text.
type messageStream struct {
	reader *schema.StreamReader[*schema.Message]
}

func (s *messageStream) Recv() (string, error) {
	for {
		msg, err := s.reader.Recv()
		if err != nil {
			return "", err
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		return msg.Content, nil
	}
}

func (s *messageStream) Close() {
	s.reader.Close()
}
