package events

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", Ordered, func() {
	Context("write", func() {
		It("drains buffered job events to the writer", func() {
			w := newTestWriter()
			ep := NewEventProducer(w)

			payload, err := json.Marshal(JobEvent{JobID: "job_1", Status: "processing", Progress: 40})
			Expect(err).To(BeNil())

			err = ep.Write(context.TODO(), JobMessageKind, bytes.NewReader(payload))
			Expect(err).To(BeNil())

			err = ep.Write(context.TODO(), WorkflowMessageKind, bytes.NewReader([]byte(`{"workflow_id":"wf_1"}`)))
			Expect(err).To(BeNil())

			<-time.After(1 * time.Second)
			Expect(len(w.Messages())).To(Equal(2))
			Expect(w.Messages()[0].Context.GetType()).To(Equal(JobMessageKind))
			Expect(w.Messages()[1].Context.GetType()).To(Equal(WorkflowMessageKind))

			var got JobEvent
			Expect(json.Unmarshal(w.Messages()[0].Data(), &got)).To(Succeed())
			Expect(got.JobID).To(Equal("job_1"))
			Expect(got.Progress).To(Equal(40))

			ep.Close()
		})
	})
})

type testwriter struct {
	messages []cloudevents.Event
	ch       chan cloudevents.Event
}

func newTestWriter() *testwriter {
	return &testwriter{ch: make(chan cloudevents.Event, 16)}
}

func (t *testwriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	t.ch <- e
	return nil
}

func (t *testwriter) Close(_ context.Context) error {
	return nil
}

// Messages drains received events into a stable slice for assertions.
func (t *testwriter) Messages() []cloudevents.Event {
	for {
		select {
		case e := <-t.ch:
			t.messages = append(t.messages, e)
		default:
			return t.messages
		}
	}
}
