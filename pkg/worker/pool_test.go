package worker_test

import (
	"context"
	"errors"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/studyloop/satchel/pkg/worker"
)

var _ = Describe("Pool", func() {
	It("runs every task", func() {
		pool, err := worker.NewPool(&worker.Config{NumWorkers: 4})
		Expect(err).NotTo(HaveOccurred())

		var count atomic.Int64
		tasks := make([]worker.Task, 20)
		for i := range tasks {
			tasks[i] = func(context.Context) error {
				count.Add(1)
				return nil
			}
		}

		Expect(pool.Run(context.Background(), tasks)).To(Succeed())
		Expect(count.Load()).To(Equal(int64(20)))
	})

	It("returns the first task error", func() {
		pool, err := worker.NewPool(&worker.Config{NumWorkers: 2})
		Expect(err).NotTo(HaveOccurred())

		boom := errors.New("boom")
		tasks := []worker.Task{
			func(context.Context) error { return nil },
			func(context.Context) error { return boom },
			func(context.Context) error { return nil },
		}

		Expect(pool.Run(context.Background(), tasks)).To(MatchError(boom))
	})

	It("cancels remaining tasks after a failure", func() {
		pool, err := worker.NewPool(&worker.Config{NumWorkers: 1})
		Expect(err).NotTo(HaveOccurred())

		var ran atomic.Int64
		tasks := []worker.Task{
			func(context.Context) error { return errors.New("first") },
			func(context.Context) error { ran.Add(1); return nil },
			func(context.Context) error { ran.Add(1); return nil },
		}

		Expect(pool.Run(context.Background(), tasks)).To(HaveOccurred())
		Expect(ran.Load()).To(BeZero())
	})

	It("handles an empty task list", func() {
		pool, err := worker.NewPool(&worker.Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(pool.Run(context.Background(), nil)).To(Succeed())
	})
})
