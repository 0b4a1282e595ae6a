// Package testkit holds shared C source fixtures for the evaluation tests.
// Keeping them in one place means every suite exercises the same shapes of
// candidate code: a clean driver, a leaky one, and a racy one.
package testkit

// GoodCharDriver is a well-formed character device driver: balanced
// allocation and locking pairs, negative-errno error handling, the full
// read/write/open/release surface and a healthy comment density.
const GoodCharDriver = `/*
 * demo character device driver
 */
#include <linux/module.h>
#include <linux/fs.h>
#include <linux/cdev.h>
#include <linux/slab.h>
#include <linux/uaccess.h>

#define DEVICE_NAME "demo"
#define BUF_LEN 1024

static int major;
static struct class *demo_class;
static char *msg_buffer;
static DEFINE_MUTEX(demo_mutex);

static int demo_open(struct inode *inode, struct file *file)
{
	mutex_lock(&demo_mutex);
	return 0;
}

static int demo_release(struct inode *inode, struct file *file)
{
	mutex_unlock(&demo_mutex);
	return 0;
}

static ssize_t demo_read(struct file *file, char __user *buf, size_t count, loff_t *ppos)
{
	size_t len = BUF_LEN - *ppos;

	if (len == 0)
		return 0;
	if (count < len)
		len = count;
	if (copy_to_user(buf, msg_buffer + *ppos, len))
		return -EFAULT;
	*ppos += len;
	return len;
}

static ssize_t demo_write(struct file *file, const char __user *buf, size_t count, loff_t *ppos)
{
	if (count > BUF_LEN)
		return -EINVAL;
	if (copy_from_user(msg_buffer, buf, count))
		return -EFAULT;
	return count;
}

static const struct file_operations demo_fops = {
	.owner = THIS_MODULE,
	.open = demo_open,
	.release = demo_release,
	.read = demo_read,
	.write = demo_write,
};

static int __init demo_init(void)
{
	msg_buffer = kmalloc(BUF_LEN, GFP_KERNEL);
	if (!msg_buffer)
		return -ENOMEM;

	major = register_chrdev(0, DEVICE_NAME, &demo_fops);
	if (major < 0) {
		kfree(msg_buffer);
		return major;
	}

	demo_class = class_create(THIS_MODULE, DEVICE_NAME);
	if (IS_ERR(demo_class)) {
		unregister_chrdev(major, DEVICE_NAME);
		kfree(msg_buffer);
		return PTR_ERR(demo_class);
	}
	device_create(demo_class, NULL, MKDEV(major, 0), NULL, DEVICE_NAME);
	return 0;
}

static void __exit demo_exit(void)
{
	device_destroy(demo_class, MKDEV(major, 0));
	class_destroy(demo_class);
	unregister_chrdev(major, DEVICE_NAME);
	kfree(msg_buffer);
}

module_init(demo_init);
module_exit(demo_exit);
MODULE_LICENSE("GPL");
`

// LeakyDriver allocates with kmalloc but never frees, so the matched-pair
// analysis reports zero compliance for memory allocation.
const LeakyDriver = `#include <linux/module.h>
#include <linux/slab.h>

static char *leak;

static int __init leak_init(void)
{
	leak = kmalloc(4096, GFP_KERNEL);
	if (!leak)
		return -ENOMEM;
	return 0;
}

static void __exit leak_exit(void)
{
}

module_init(leak_init);
module_exit(leak_exit);
MODULE_LICENSE("GPL");
`

// RacyDriver takes a spinlock on one path and never releases it, and keeps
// an interrupt registration without a matching free.
const RacyDriver = `#include <linux/module.h>
#include <linux/spinlock.h>
#include <linux/interrupt.h>

static spinlock_t racy_lock;
static int irq_line = 5;

static irqreturn_t racy_isr(int irq, void *dev)
{
	return IRQ_HANDLED;
}

static int __init racy_init(void)
{
	spin_lock(&racy_lock);
	if (request_irq(irq_line, racy_isr, 0, "racy", NULL))
		return -EBUSY;
	return 0;
}

static void __exit racy_exit(void)
{
}

module_init(racy_init);
module_exit(racy_exit);
MODULE_LICENSE("GPL");
`

// BrokenDriver fails any reasonable compile: a missing semicolon and an
// undeclared identifier.
const BrokenDriver = `#include <linux/module.h>

static int __init broken_init(void)
{
	int x = 1
	return nonsense;
}

module_init(broken_init);
MODULE_LICENSE("GPL");
`
