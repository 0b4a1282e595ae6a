package llm

import "context"

// MockProvider returns canned responses, cycling through them on successive
// calls. Useful for tests and offline development.
type MockProvider struct {
	responses []string
	calls     int
	err       error
}

// NewMockProvider creates a mock cycling through the given responses. With
// no responses it serves a minimal character device skeleton.
func NewMockProvider(responses ...string) *MockProvider {
	if len(responses) == 0 {
		responses = []string{mockDriverSource}
	}
	return &MockProvider{responses: responses}
}

// NewFailingProvider creates a mock whose Chat always fails with err.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{err: err}
}

func (m *MockProvider) Name() string { return "mock" }

// Calls reports how many times Chat has been invoked.
func (m *MockProvider) Calls() int { return m.calls }

// Chat returns the next canned response.
func (m *MockProvider) Chat(ctx context.Context, model, systemPrompt, prompt string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.responses[(m.calls-1)%len(m.responses)], nil
}

const mockDriverSource = `#include <linux/module.h>
#include <linux/fs.h>
#include <linux/uaccess.h>

#define BUF_SIZE 1024

static char *buffer;
static int major;

static ssize_t demo_read(struct file *file, char __user *buf, size_t count, loff_t *ppos)
{
	return simple_read_from_buffer(buf, count, ppos, buffer, BUF_SIZE);
}

static ssize_t demo_write(struct file *file, const char __user *buf, size_t count, loff_t *ppos)
{
	return simple_write_to_buffer(buffer, BUF_SIZE, ppos, buf, count);
}

static int demo_open(struct inode *inode, struct file *file)
{
	return 0;
}

static int demo_release(struct inode *inode, struct file *file)
{
	return 0;
}

static const struct file_operations demo_fops = {
	.owner = THIS_MODULE,
	.read = demo_read,
	.write = demo_write,
	.open = demo_open,
	.release = demo_release,
};

static int __init demo_init(void)
{
	buffer = kmalloc(BUF_SIZE, GFP_KERNEL);
	if (!buffer)
		return -ENOMEM;
	major = register_chrdev(0, "demo", &demo_fops);
	if (major < 0) {
		kfree(buffer);
		return major;
	}
	return 0;
}

static void __exit demo_exit(void)
{
	unregister_chrdev(major, "demo");
	kfree(buffer);
}

module_init(demo_init);
module_exit(demo_exit);
MODULE_LICENSE("GPL");
`
