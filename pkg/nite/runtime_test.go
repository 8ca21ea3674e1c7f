package nite_test

import (
	"errors"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skeletrack/skeletrack/pkg/logger"
	"github.com/skeletrack/skeletrack/pkg/mocks"
	"github.com/skeletrack/skeletrack/pkg/nite"
	"github.com/skeletrack/skeletrack/pkg/types"
)

var _ = Describe("Runtime", func() {
	var (
		ctrl    *gomock.Controller
		engine  *mocks.MockEngine
		tracker *mocks.MockUserTracker
		runtime *nite.Runtime
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		engine = mocks.NewMockEngine(ctrl)
		tracker = mocks.NewMockUserTracker(ctrl)
		engine.EXPECT().Name().Return("mock").AnyTimes()
		runtime = nite.NewRuntime(engine, logger.Discard())
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	It("starts uninitialized", func() {
		Expect(runtime.State()).To(Equal(nite.StateUninitialized))
		Expect(runtime.EngineName()).To(Equal("mock"))
	})

	It("refuses trackers before initialize", func() {
		_, err := runtime.NewUserTracker()
		Expect(err).To(MatchError(nite.ErrNotReady))
	})

	Context("when initialize fails", func() {
		BeforeEach(func() {
			engine.EXPECT().Initialize().Return(nite.Fail("initialize", nite.StatusFailed))
		})

		It("stays uninitialized and carries the status", func() {
			err := runtime.Initialize()
			Expect(nite.StatusOf(err)).To(Equal(nite.StatusFailed))
			Expect(runtime.State()).To(Equal(nite.StateUninitialized))
		})

		It("does not shut the engine down", func() {
			Expect(runtime.Initialize()).NotTo(Succeed())
			runtime.Shutdown()
			Expect(runtime.State()).To(Equal(nite.StateShutdown))
		})
	})

	Context("when initialized", func() {
		BeforeEach(func() {
			engine.EXPECT().Initialize().Return(nil)
			Expect(runtime.Initialize()).To(Succeed())
		})

		It("is ready", func() {
			Expect(runtime.State()).To(Equal(nite.StateReady))
		})

		It("rejects a second initialize", func() {
			Expect(runtime.Initialize()).To(MatchError(nite.ErrAlreadyInitialized))
		})

		It("forwards tracker calls to the engine", func() {
			engine.EXPECT().CreateUserTracker().Return(tracker, nil)
			tracker.EXPECT().ReadFrame(gomock.Any()).DoAndReturn(func(f *types.Frame) error {
				f.Index = 42
				return nil
			})
			tracker.EXPECT().StartSkeletonTracking(types.UserID(3)).Return(nil)
			tracker.EXPECT().Close().Return(nil)
			engine.EXPECT().Shutdown()

			t, err := runtime.NewUserTracker()
			Expect(err).NotTo(HaveOccurred())

			var frame types.Frame
			Expect(t.ReadFrame(&frame)).To(Succeed())
			Expect(frame.Index).To(Equal(42))
			Expect(t.StartSkeletonTracking(3)).To(Succeed())

			Expect(t.Close()).To(Succeed())
			Expect(t.Close()).To(Succeed())
			runtime.Shutdown()
		})

		It("passes tracker creation failures through", func() {
			engine.EXPECT().CreateUserTracker().Return(nil, nite.Fail("create user tracker", nite.StatusOutOfFlow))
			engine.EXPECT().Shutdown()

			_, err := runtime.NewUserTracker()
			Expect(nite.StatusOf(err)).To(Equal(nite.StatusOutOfFlow))
			runtime.Shutdown()
		})

		It("rejects calls on a closed tracker", func() {
			engine.EXPECT().CreateUserTracker().Return(tracker, nil)
			tracker.EXPECT().Close().Return(nil)
			engine.EXPECT().Shutdown()

			t, err := runtime.NewUserTracker()
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Close()).To(Succeed())

			err = t.ReadFrame(&types.Frame{})
			Expect(errors.Is(err, nite.ErrTrackerClosed)).To(BeTrue())
			Expect(nite.StatusOf(err)).To(Equal(nite.StatusFailed))
			runtime.Shutdown()
		})

		Context("and shut down", func() {
			var t *nite.Tracker

			BeforeEach(func() {
				engine.EXPECT().CreateUserTracker().Return(tracker, nil)
				tracker.EXPECT().Close().Return(nil).Times(1)
				engine.EXPECT().Shutdown().Times(1)

				var err error
				t, err = runtime.NewUserTracker()
				Expect(err).NotTo(HaveOccurred())
				runtime.Shutdown()
			})

			It("closes open trackers exactly once", func() {
				Expect(t.Close()).To(Succeed())
				runtime.Shutdown()
				Expect(runtime.State()).To(Equal(nite.StateShutdown))
			})

			It("rejects tracker calls", func() {
				err := t.StartSkeletonTracking(1)
				Expect(errors.Is(err, nite.ErrTrackerClosed)).To(BeTrue())
			})

			It("cannot be initialized again", func() {
				Expect(runtime.Initialize()).To(MatchError(nite.ErrShutdown))
				_, err := runtime.NewUserTracker()
				Expect(err).To(MatchError(nite.ErrNotReady))
			})
		})
	})
})

var _ = Describe("Status", func() {
	DescribeTable("String",
		func(s nite.Status, want string) {
			Expect(s.String()).To(Equal(want))
		},
		Entry("ok", nite.StatusOK, "OK"),
		Entry("failed", nite.StatusFailed, "ERROR"),
		Entry("bad user id", nite.StatusBadUserID, "BAD_USER_ID"),
		Entry("out of flow", nite.StatusOutOfFlow, "OUT_OF_FLOW"),
		Entry("unknown", nite.Status(9), "STATUS(9)"),
	)

	It("maps OK to a nil error", func() {
		Expect(nite.Fail("read frame", nite.StatusOK)).To(BeNil())
		Expect(nite.StatusOf(nil)).To(Equal(nite.StatusOK))
	})

	It("treats foreign errors as StatusFailed", func() {
		Expect(nite.StatusOf(errors.New("boom"))).To(Equal(nite.StatusFailed))
	})

	It("survives wrapping", func() {
		err := nite.Fail("start skeleton tracking", nite.StatusBadUserID)
		wrapped := errors.Join(errors.New("context"), err)
		Expect(nite.StatusOf(wrapped)).To(Equal(nite.StatusBadUserID))
		Expect(err.Error()).To(Equal("start skeleton tracking: BAD_USER_ID"))
	})
})
