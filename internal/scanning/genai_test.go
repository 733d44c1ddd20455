package scanning

import (
	"context"

	"github.com/google/generative-ai-go/genai"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("GenAI", func() {
	Describe("NewGenAI", func() {
		It("requires an API key", func() {
			_, err := NewGenAI(context.Background(), "", "")
			Expect(err).To(MatchError(ContainSubstring("api key is required")))
		})

		It("configures a single deterministic JSON answer", func() {
			extractor, err := NewGenAI(context.Background(), "test-key", "")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(extractor.Close)

			model := extractor.model
			Expect(model.CandidateCount).NotTo(BeNil())
			Expect(*model.CandidateCount).To(Equal(int32(1)))
			Expect(model.Temperature).NotTo(BeNil())
			Expect(*model.Temperature).To(BeZero())
			Expect(model.SystemInstruction).NotTo(BeNil())
			Expect(model.SystemInstruction.Parts).To(ConsistOf(genai.Text(jsonOnlyInstruction)))
		})
	})

	Describe("firstText", func() {
		It("uses only the first part of the first candidate", func() {
			resp := &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{
					{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"vendor":"Cafe"}`), genai.Text("trailing")}}},
					{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
				},
			}
			text, ok := firstText(resp)
			Expect(ok).To(BeTrue())
			Expect(text).To(Equal(`{"vendor":"Cafe"}`))
		})

		It("reports missing text", func() {
			_, ok := firstText(&genai.GenerateContentResponse{})
			Expect(ok).To(BeFalse())

			_, ok = firstText(&genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}, genai.Text("late")}}}},
			})
			Expect(ok).To(BeFalse())

			_, ok = firstText(&genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{Content: &genai.Content{}}},
			})
			Expect(ok).To(BeFalse())

			_, ok = firstText(nil)
			Expect(ok).To(BeFalse())
		})
	})
})
