package patch

const twoModified = `diff --git a/a.txt b/a.txt
index 1111111..2222222 100644
--- a/a.txt
+++ b/a.txt
@@ -1,2 +1,2 @@
 keep
-old
+new
diff --git a/b.txt b/b.txt
index 3333333..4444444 100644
--- a/b.txt
+++ b/b.txt
@@ -1 +1 @@
-before
+after
`

const newFile = `diff --git a/dir/new.txt b/dir/new.txt
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/dir/new.txt
@@ -0,0 +1,2 @@
+line1
+line2
`

const newFileNoNewline = `diff --git a/dir/new.txt b/dir/new.txt
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/dir/new.txt
@@ -0,0 +1,2 @@
+line1
+line2
\ No newline at end of file
`

const deletedFile = `diff --git a/foo.c b/foo.c
deleted file mode 100644
index 4444444..0000000
--- a/foo.c
+++ /dev/null
@@ -1,2 +0,0 @@
-int main(void) {
-	return 0; }
`

const formatPatch = `From 1234567890abcdef Mon Sep 17 00:00:00 2001
From: Dev <dev@example.com>
Date: Mon, 1 Jan 2024 00:00:00 +0000
Subject: [PATCH] Add greeting

---
 hello.txt | 1 +
 1 file changed, 1 insertion(+)

diff --git a/hello.txt b/hello.txt
new file mode 100644
index 0000000..ce01362
--- /dev/null
+++ b/hello.txt
@@ -0,0 +1 @@
+hello
` + "-- \n" + `2.43.0

`

const plainDiff = `--- a/x.txt	2024-01-01 00:00:00.000000000 +0000
+++ b/x.txt	2024-01-01 00:00:01.000000000 +0000
@@ -1 +1 @@
-a
+b
--- a/y.txt	2024-01-01 00:00:00.000000000 +0000
+++ b/y.txt	2024-01-01 00:00:01.000000000 +0000
@@ -1,2 +1,3 @@
 one
+two
 three
`
