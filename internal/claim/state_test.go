package claim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("machine", func() {
	var m *machine

	BeforeEach(func() {
		m = &machine{state: StateInit}
	})

	advance := func(states ...State) {
		for _, s := range states {
			Expect(m.transition(s)).To(Succeed())
		}
	}

	It("follows the happy path", func() {
		advance(StateDiscoverFiles, StateFetchSetup, StateSelectProject, StateCreateClaim,
			StateProcessFile, StateProcessFile, StateDone)
		Expect(m.state).To(Equal(StateDone))
	})

	It("rejects skipping a step", func() {
		Expect(m.transition(StateCreateClaim)).To(MatchError(ContainSubstring("INIT -> CREATE_CLAIM")))
		Expect(m.state).To(Equal(StateInit))
	})

	It("rejects leaving a terminal state", func() {
		advance(StateDiscoverFiles, StateFailed)
		Expect(m.transition(StateFetchSetup)).NotTo(Succeed())
		Expect(m.transition(StateFailed)).NotTo(Succeed())
	})

	It("only records a claim while creating it", func() {
		advance(StateDiscoverFiles)
		Expect(m.markClaimCreated()).NotTo(Succeed())
		Expect(m.claimCreated).To(BeFalse())
	})

	Describe("needsRollback", func() {
		It("is false when failing before a claim exists", func() {
			advance(StateDiscoverFiles, StateFetchSetup, StateSelectProject, StateCreateClaim, StateFailed)
			Expect(m.needsRollback()).To(BeFalse())
		})

		It("is true when failing after the claim was created", func() {
			advance(StateDiscoverFiles, StateFetchSetup, StateSelectProject, StateCreateClaim)
			Expect(m.markClaimCreated()).To(Succeed())
			advance(StateProcessFile, StateFailed)
			Expect(m.needsRollback()).To(BeTrue())
		})

		It("is false after a successful run", func() {
			advance(StateDiscoverFiles, StateFetchSetup, StateSelectProject, StateCreateClaim)
			Expect(m.markClaimCreated()).To(Succeed())
			advance(StateProcessFile, StateDone)
			Expect(m.needsRollback()).To(BeFalse())
		})
	})

	It("names states", func() {
		Expect(StateProcessFile.String()).To(Equal("PROCESS_FILE"))
		Expect(State(99).String()).To(Equal("State(99)"))
	})
})
